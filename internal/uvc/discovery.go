package uvc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultSysfsRoot is where the kernel exposes device attributes.
const DefaultSysfsRoot = "/sys"

// Candidate is a video4linux node belonging to a matching USB device.
type Candidate struct {
	Name      string // e.g. "video0"
	DevPath   string // e.g. "/dev/video0"
	Index     int    // node index within the USB interface
	VendorID  uint16
	ProductID uint16
}

// FindCandidates lists video4linux nodes whose USB parent matches vid:pid,
// ordered by node number.
//
// For every <sysfs>/class/video4linux/videoN the resolved <node>/device
// link is the USB interface; its parent directory holds idVendor and
// idProduct.
func FindCandidates(sysfsRoot string, vid, pid uint16) ([]Candidate, error) {
	if sysfsRoot == "" {
		sysfsRoot = DefaultSysfsRoot
	}

	nodes, err := filepath.Glob(filepath.Join(sysfsRoot, "class", "video4linux", "video*"))
	if err != nil {
		return nil, fmt.Errorf("uvc: scan video4linux: %w", err)
	}

	var found []Candidate
	for _, node := range nodes {
		iface, err := filepath.EvalSymlinks(filepath.Join(node, "device"))
		if err != nil {
			continue
		}
		usbDir := filepath.Dir(iface)

		v, err := readHexID(filepath.Join(usbDir, "idVendor"))
		if err != nil {
			continue
		}
		p, err := readHexID(filepath.Join(usbDir, "idProduct"))
		if err != nil {
			continue
		}
		if v != vid || p != pid {
			continue
		}

		name := filepath.Base(node)
		index := 0
		if raw, err := os.ReadFile(filepath.Join(node, "index")); err == nil {
			index, _ = strconv.Atoi(strings.TrimSpace(string(raw)))
		}

		found = append(found, Candidate{
			Name:      name,
			DevPath:   filepath.Join("/dev", name),
			Index:     index,
			VendorID:  v,
			ProductID: p,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return nodeNumber(found[i].Name) < nodeNumber(found[j].Name)
	})
	return found, nil
}

func readHexID(path string) (uint16, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("uvc: parse %s: %w", path, err)
	}
	return uint16(v), nil
}

func nodeNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(name, "video"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
