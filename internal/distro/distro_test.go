package distro

import "testing"

func TestParseOSRelease(t *testing.T) {
	content := `NAME="Fedora Linux"
ID=fedora
ID_LIKE="rhel centos"
VERSION_ID=39
`
	info, ok := ParseOSRelease(content)
	if !ok {
		t.Fatal("ParseOSRelease reported a miss, want a hit")
	}
	if info.ID != "fedora" {
		t.Errorf("ID = %q, want fedora", info.ID)
	}
	if info.VersionID != "39" {
		t.Errorf("VersionID = %q, want 39", info.VersionID)
	}
	want := []string{"rhel", "centos"}
	if len(info.IDLike) != len(want) {
		t.Fatalf("IDLike = %v, want %v", info.IDLike, want)
	}
	for i := range want {
		if info.IDLike[i] != want[i] {
			t.Errorf("IDLike[%d] = %q, want %q", i, info.IDLike[i], want[i])
		}
	}
}

func TestParseOSReleaseS3Ubuntu(t *testing.T) {
	info, ok := ParseOSRelease("ID=ubuntu\nVERSION_ID=\"22.04\"\n")
	if !ok {
		t.Fatal("ParseOSRelease reported a miss, want a hit")
	}
	if info.ID != "ubuntu" || info.VersionID != "22.04" {
		t.Errorf("got (%q, %q), want (ubuntu, 22.04)", info.ID, info.VersionID)
	}
	if got := DetectPackageManager(info); got != "apt" {
		t.Errorf("DetectPackageManager = %q, want apt", got)
	}
}

func TestParseOSReleaseMissingVersionIDIsMiss(t *testing.T) {
	if _, ok := ParseOSRelease("ID=ubuntu\n"); ok {
		t.Error("expected a miss when VERSION_ID is absent")
	}
}

func TestParseOSReleaseMissingIDIsMiss(t *testing.T) {
	if _, ok := ParseOSRelease("VERSION_ID=22.04\n"); ok {
		t.Error("expected a miss when ID is absent")
	}
}

func TestDetectPackageManager(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{ID: "alpine"}, "apk"},
		{Info{ID: "arch"}, "pacman"},
		{Info{ID: "centos"}, "yum"},
		{Info{ID: "rocky"}, "yum"},
		{Info{ID: "debian"}, "apt"},
		{Info{ID: "fedora"}, "dnf"},
		{Info{ID: "opensuse"}, "zypper"},
		{Info{ID: "ubuntu"}, "apt"},
		{Info{ID: "opensuse-tumbleweed"}, "zypper"},
		{Info{ID: "amzn", IDLike: []string{"fedora"}}, "dnf"},
		{Info{ID: "nosuchdistro"}, ""},
	}
	for _, tt := range tests {
		got := DetectPackageManager(tt.info)
		if got != tt.want {
			t.Errorf("DetectPackageManager(%+v) = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestRefreshCmd(t *testing.T) {
	tests := []struct {
		manager string
		want    string
	}{
		{"apk", "apk update"},
		{"pacman", "pacman -S -y -y"},
		{"yum", "yum makecache"},
		{"apt", "apt-get update"},
		{"dnf", "dnf makecache"},
		{"zypper", "zypper refresh"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		got := RefreshCmd(tt.manager)
		if got != tt.want {
			t.Errorf("RefreshCmd(%q) = %q, want %q", tt.manager, got, tt.want)
		}
	}
}

func TestInstallCmd(t *testing.T) {
	got := InstallCmd("apt", []string{"curl", "wget"})
	want := "apt-get install -y curl wget"
	if got != want {
		t.Errorf("InstallCmd = %q, want %q", got, want)
	}
}

func TestToolboxBaseline(t *testing.T) {
	for _, id := range []string{"alpine", "arch", "centos", "debian", "fedora", "opensuse", "rocky", "ubuntu"} {
		pkgs := ToolboxBaseline(id)
		if len(pkgs) == 0 {
			t.Errorf("ToolboxBaseline(%q) returned no packages", id)
		}
	}
	if pkgs := ToolboxBaseline("nosuchdistro"); pkgs != nil {
		t.Errorf("ToolboxBaseline(unknown) = %v, want nil", pkgs)
	}
}
