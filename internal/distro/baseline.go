package distro

// baselinePackages lists the packages distrobox itself expects to find in
// every toolbox, independent of anything the user asked for. They cover
// terminal integration (vte), privilege escalation (sudo/shadow), and
// basic GPU passthrough.
var baselinePackages = map[string][]string{
	"alpine": {
		"bc", "curl", "diffutils", "findmnt", "findutils", "gnupg", "less",
		"lsof", "mount", "umount", "ncurses", "pinentry", "posix-libc-utils",
		"procps", "shadow", "su-exec", "sudo", "util-linux", "util-linux-misc",
		"vte3", "wget", "vulkan-loader",
	},
	"arch": {
		"bc", "curl", "diffutils", "findutils", "gnupg", "less", "lsof",
		"ncurses", "pinentry", "procps-ng", "shadow", "sudo", "time",
		"util-linux", "wget", "mesa", "opengl-driver", "vulkan-intel",
		"vte-common", "vulkan-radeon",
	},
	"centos": {
		"bc", "curl", "diffutils", "findutils", "gnupg2", "less", "lsof",
		"ncurses", "pam", "passwd", "pinentry", "procps-ng", "shadow-utils",
		"sudo", "time", "tzdata", "util-linux", "vte-profile", "wget",
		"mesa-dri-drivers", "mesa-vulkan-drivers", "vulkan",
	},
	"debian": {
		"apt-utils", "bc", "curl", "dialog", "diffutils", "findutils",
		"gnupg2", "less", "libnss-myhostname", "libvte-2.9*-common",
		"libvte-common", "lsof", "ncurses-base", "passwd", "pinentry-curses",
		"procps", "sudo", "time", "util-linux", "wget", "libegl1-mesa",
		"libgl1-mesa-glx", "libvulkan1", "mesa-vulkan-drivers",
	},
	"fedora": {
		"bc", "curl", "diffutils", "dnf-plugins-core", "findutils", "gnupg2",
		"less", "lsof", "ncurses", "pam", "passwd", "pinentry", "procps-ng",
		"shadow-utils", "sudo", "time", "tzdata", "util-linux", "vte-profile",
		"wget", "mesa-dri-drivers", "mesa-vulkan-drivers", "vulkan",
	},
	"opensuse": {
		"bc", "curl", "diffutils", "findutils", "gnupg", "less", "libvte-2*",
		"lsof", "ncurses", "pam", "pam-extra", "pinentry", "procps", "shadow",
		"sudo", "systemd", "time", "util-linux", "util-linux-systemd", "wget",
		"Mesa-dri", "libvulkan1", "libvulkan_intel", "libvulkan_radeon",
	},
	"rocky": {
		"bc", "curl", "diffutils", "findutils", "gnupg2", "less", "lsof",
		"ncurses", "pam", "passwd", "pinentry", "procps-ng", "shadow-utils",
		"sudo", "time", "tzdata", "util-linux", "vte-profile", "wget",
		"mesa-dri-drivers", "mesa-vulkan-drivers", "vulkan",
	},
	"ubuntu": {
		"apt-utils", "bc", "curl", "dialog", "diffutils", "findutils",
		"gnupg2", "less", "libnss-myhostname", "libvte-2.9*-common",
		"libvte-common", "lsof", "ncurses-base", "passwd", "pinentry-curses",
		"procps", "sudo", "time", "util-linux", "wget", "libegl1-mesa",
		"libgl1-mesa-glx", "libvulkan1", "mesa-vulkan-drivers",
	},
}

// ToolboxBaseline returns the baseline package list for an exact distro
// id. It returns nil for an id that has no known baseline; callers treat
// that as "no baseline packages to add", not an error.
func ToolboxBaseline(distroID string) []string {
	pkgs, ok := baselinePackages[distroID]
	if !ok {
		return nil
	}
	out := make([]string, len(pkgs))
	copy(out, pkgs)
	return out
}
