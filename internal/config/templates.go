package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "nexusd", "server":
		return serverTemplate, nil
	case "seed":
		return seedTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "nexusd"
addr = ":8000"
cors_origins = ["http://localhost:3000"]
company = "American Circuits"
log_level = "info"

[store]
# memory | postgres | sqlite
driver = "memory"
dsn = ""
seed_file = "cmd/nexusd/seed.toml"
connect_attempts = 10

[codes]
# current keeps printed-label compatibility; v2 emits NEXUS-STEP-V2 payloads.
step_format = "current"
`

const seedTemplate = `[[travelers]]
id = 7
job_number = "8414L"
work_order_number = "WO99"
traveler_type = "PCB"
part_number = "PCB-100"
part_description = "Control board"
revision = "B"
quantity = 25
priority = "NORMAL"
work_center = "SMT"

[[travelers.manual_steps]]
description = "Touch-up inspection"

[[travelers]]
id = 8
job_number = "8744"
traveler_type = "CABLE"
part_number = "CBL-2"
part_description = "Harness"
revision = "A"
quantity = 100
work_center = "CABLE_PREP"
`
