// Package distro identifies a base image's Linux distribution and package
// manager, and supplies the baseline toolbox package set and install
// commands for it.
package distro

import (
	"bufio"
	"fmt"
	"strings"
)

// DistroError reports that a base image's distro metadata couldn't be
// turned into a usable package manager: either /etc/os-release didn't
// carry both ID and VERSION_ID, or the id (and its id_like fallbacks)
// matched no entry in the package-manager map.
type DistroError struct {
	Image string
	Msg   string
}

func (e *DistroError) Error() string {
	if e.Image == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Image, e.Msg)
}

// Info is the parsed content of /etc/os-release that matters for package
// management: the distro id, its version, and its declared id_like
// fallbacks.
type Info struct {
	ID        string
	VersionID string
	IDLike    []string
}

// ParseOSRelease parses the key=value lines of an /etc/os-release file.
// Quoting follows the same loose shell-quote convention the file itself
// uses: a value wrapped in a single matching pair of quotes has them
// stripped. It reports a miss unless both ID and VERSION_ID are present.
func ParseOSRelease(content string) (Info, bool) {
	var info Info
	var sawID, sawVersionID bool
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		switch key {
		case "ID":
			info.ID = value
			sawID = true
		case "VERSION_ID":
			info.VersionID = value
			sawVersionID = true
		case "ID_LIKE":
			info.IDLike = strings.Fields(value)
		}
	}
	if !sawID || !sawVersionID {
		return Info{}, false
	}
	return info, true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// packageManagers maps a distro-id substring to the package manager that
// handles it. Matching is containment-based: "opensuse-tumbleweed"
// matches "opensuse".
var packageManagers = []struct {
	key     string
	manager string
}{
	{"alpine", "apk"},
	{"arch", "pacman"},
	{"centos", "yum"},
	{"rocky", "yum"},
	{"debian", "apt"},
	{"fedora", "dnf"},
	{"opensuse", "zypper"},
	{"ubuntu", "apt"},
}

// DetectPackageManager resolves the package manager for a distro id,
// checking the id itself first and then each id_like fallback in order.
// An unrecognized distro yields "".
func DetectPackageManager(info Info) string {
	if m := matchManager(info.ID); m != "" {
		return m
	}
	for _, like := range info.IDLike {
		if m := matchManager(like); m != "" {
			return m
		}
	}
	return ""
}

func matchManager(id string) string {
	if id == "" {
		return ""
	}
	for _, pm := range packageManagers {
		if id == pm.key {
			return pm.manager
		}
	}
	for _, pm := range packageManagers {
		if strings.Contains(id, pm.key) {
			return pm.manager
		}
	}
	return ""
}

// RefreshCmd returns the shell command that refreshes a package manager's
// index, or "" if the manager is unrecognized.
func RefreshCmd(manager string) string {
	switch manager {
	case "apk":
		return "apk update"
	case "pacman":
		return "pacman -S -y -y"
	case "yum":
		return "yum makecache"
	case "apt":
		return "apt-get update"
	case "dnf":
		return "dnf makecache"
	case "zypper":
		return "zypper refresh"
	default:
		return ""
	}
}

// InstallCmd returns the shell command that installs packages
// non-interactively for the given package manager.
func InstallCmd(manager string, packages []string) string {
	joined := strings.Join(packages, " ")
	switch manager {
	case "apk":
		return "apk add --no-cache " + joined
	case "pacman":
		return "pacman -S --needed --noconfirm " + joined
	case "yum":
		return "yum -y install --skip-broken " + joined
	case "apt":
		return "apt-get install -y " + joined
	case "dnf":
		return "dnf -y install " + joined
	case "zypper":
		return "zypper --non-interactive install " + joined
	default:
		return ""
	}
}
