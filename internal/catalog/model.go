package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ApplicationConfig is the per-application configuration record (spec.md
// §3). Field names and json tags mirror the catalog's on-disk schema
// exactly, since status.json is a compatibility-sensitive format shared
// with every control-tool invocation and every running engine.
type ApplicationConfig struct {
	Start            string `json:"start"`
	Interpreter      string `json:"interpreter"`
	Params           string `json:"params"`
	WorkingDirectory string `json:"working_directory"`
	Name             string `json:"name"`
	UUID             string `json:"uuid"`
	AppLogPath       string `json:"app_log_path"`
	AppPidFile       string `json:"app_pid_file"`

	BeforeExecute string `json:"before_execute"`

	RestartControl      bool     `json:"restart_control"`
	RestartCheckDelay    float64  `json:"restart_check_delay"`
	RestartKeyword       []string `json:"restart_keyword"`
	RestartKeywordRegex  []string `json:"restart_keyword_regex"`
	RestartWaitTime      float64  `json:"restart_wait_time"`

	UpdateScript string `json:"update_script"`
}

// AppEntry wraps ApplicationConfig the way the schema nests it under
// "app_conf", leaving room for future sibling keys without a breaking
// schema change.
type AppEntry struct {
	AppConf ApplicationConfig `json:"app_conf"`
}

// APIBlock holds the optional remote-bridge credentials (spec.md §6); the
// bridge itself is out of core scope, but the catalog still carries and
// round-trips this block.
type APIBlock struct {
	APIToken      string `json:"api_token,omitempty"`
	NodeName      string `json:"node_name,omitempty"`
	ServerAddress string `json:"server_address,omitempty"`
	Namespace     string `json:"namespace,omitempty"`
	SocketIOPath  string `json:"socketio_path,omitempty"`
}

// Document is the whole catalog (spec.md §3's CatalogDocument). Unknown
// top-level keys are preserved verbatim across load/save round-trips in
// Extra; see MarshalJSON/UnmarshalJSON.
type Document struct {
	Version        string
	SystemBootTime string
	Apps           map[int64]AppEntry
	API            APIBlock
	Extra          map[string]json.RawMessage
}

// NewDocument returns a freshly-initialized document: empty apps, empty api
// block, the given boot-time stamp (spec.md §4.1 "Initialization").
func NewDocument(bootTime string) Document {
	return Document{
		Version:        "1",
		SystemBootTime: bootTime,
		Apps:           make(map[int64]AppEntry),
	}
}

// MarshalJSON renders the document with every known field present (even if
// zero-valued, so `apps`/`api` always round-trip as objects) plus any
// preserved unknown top-level keys. Key order is the deterministic
// alphabetical order encoding/json already applies to map keys, which is
// stable enough for human diffing (spec.md §3's requirement); no
// third-party JSON library in the retrieval pack offers ordered-object
// encoding, so this stays on the standard library (see DESIGN.md).
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+4)
	for k, v := range d.Extra {
		out[k] = v
	}

	versionJSON, err := json.Marshal(d.Version)
	if err != nil {
		return nil, err
	}
	out["version"] = versionJSON

	bootJSON, err := json.Marshal(d.SystemBootTime)
	if err != nil {
		return nil, err
	}
	out["system_boot_time"] = bootJSON

	appsByKey := make(map[string]AppEntry, len(d.Apps))
	for id, entry := range d.Apps {
		appsByKey[strconv.FormatInt(id, 10)] = entry
	}
	appsJSON, err := json.Marshal(appsByKey)
	if err != nil {
		return nil, fmt.Errorf("marshal apps: %w", err)
	}
	out["apps"] = appsJSON

	apiJSON, err := json.Marshal(d.API)
	if err != nil {
		return nil, err
	}
	out["api"] = apiJSON

	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: known keys populate typed
// fields, everything else is kept in Extra untouched.
func (d *Document) UnmarshalJSON(b []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &d.Version); err != nil {
			return fmt.Errorf("decode version: %w", err)
		}
		delete(raw, "version")
	}
	if v, ok := raw["system_boot_time"]; ok {
		if err := json.Unmarshal(v, &d.SystemBootTime); err != nil {
			return fmt.Errorf("decode system_boot_time: %w", err)
		}
		delete(raw, "system_boot_time")
	}

	d.Apps = make(map[int64]AppEntry)
	if v, ok := raw["apps"]; ok {
		var byKey map[string]AppEntry
		if err := json.Unmarshal(v, &byKey); err != nil {
			return fmt.Errorf("decode apps: %w", err)
		}
		for key, entry := range byKey {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				continue // non-numeric app key; drop rather than fail the whole load
			}
			d.Apps[id] = entry
		}
		delete(raw, "apps")
	}

	if v, ok := raw["api"]; ok {
		if err := json.Unmarshal(v, &d.API); err != nil {
			return fmt.Errorf("decode api: %w", err)
		}
		delete(raw, "api")
	}

	d.Extra = raw
	return nil
}
