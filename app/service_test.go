package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/heatplan/heatplan/config"
)

const testConfig = `global:
  ct_pull_frequency: 60
  ta_push_frequency: 1
  log_level: error
rooms:
  nave:
    churchtools_id: 17
  vestry:
    churchtools_id: 21
    preheat_mins: 20
    preshutdown_mins: 5
cmis:
  - host: 10.1.0.5
    our_virtual_can_id: 50
    rooms:
      - {name: nave, pdo_index: 1}
      - {name: vestry, pdo_index: 2}
external_temperature_sensor:
  can_id: 10
  pdo_index: 2
ct:
  host: churchtools.example.org
  login_token: tok
`

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestNewWiresServiceFromConfig(t *testing.T) {
	svc, err := New(loadTestConfig(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	if svc.poller == nil || svc.dispatcher == nil || svc.listener == nil || svc.monitor == nil {
		t.Fatal("loops not wired")
	}
	if rooms := svc.store.Rooms(); len(rooms) != 2 {
		t.Fatalf("store rooms = %v, want 2", rooms)
	}
	if svc.roomsAPI == nil {
		t.Fatal("rooms API not wired")
	}
	if svc.mirror != nil {
		t.Fatal("mirror must stay nil while mqtt is disabled")
	}
	if svc.dispatchLog != nil {
		t.Fatal("dispatch log must stay nil while the ops server is disabled")
	}
}

func TestCloseIsIdempotentOnBus(t *testing.T) {
	svc, err := New(loadTestConfig(t))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
