package uvc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeSysfs lays out class/video4linux/<node>/device links pointing at USB
// interface directories below devices/<usb>/, like the kernel does.
func fakeSysfs(t *testing.T, nodes map[string][2]string) string {
	t.Helper()
	root := t.TempDir()

	for node, ids := range nodes {
		usbDir := filepath.Join(root, "devices", "usb-"+node)
		iface := filepath.Join(usbDir, "1-1:1.0")
		if err := os.MkdirAll(iface, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(usbDir, "idVendor"), []byte(ids[0]+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(usbDir, "idProduct"), []byte(ids[1]+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		nodeDir := filepath.Join(root, "class", "video4linux", node)
		if err := os.MkdirAll(nodeDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(iface, filepath.Join(nodeDir, "device")); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(nodeDir, "index"), []byte("0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestFindCandidates(t *testing.T) {
	root := fakeSysfs(t, map[string][2]string{
		"video0":  {"046d", "0825"}, // webcam
		"video10": {"1e4e", "0100"},
		"video2":  {"1e4e", "0100"},
	})

	found, err := FindCandidates(root, 0x1e4e, 0x0100)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(found), found)
	}
	if found[0].Name != "video2" || found[1].Name != "video10" {
		t.Errorf("candidates not ordered by node number: %s, %s", found[0].Name, found[1].Name)
	}
	if found[0].DevPath != "/dev/video2" {
		t.Errorf("unexpected dev path %s", found[0].DevPath)
	}

	t.Logf("✅ PureThermal nodes: %s, %s", found[0].DevPath, found[1].DevPath)
}

func TestFindCandidates_NoMatch(t *testing.T) {
	root := fakeSysfs(t, map[string][2]string{"video0": {"046d", "0825"}})

	found, err := FindCandidates(root, 0x1e4e, 0x0100)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no candidates, got %+v", found)
	}
}

func TestOpen_DeviceNotFound(t *testing.T) {
	root := fakeSysfs(t, map[string][2]string{"video0": {"046d", "0825"}})

	_, err := Open(Config{VendorID: 0x1e4e, ProductID: 0x0100, SysfsRoot: root})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}
