package config

import (
	"fmt"
	"strconv"
)

// Dotted keys used by the settings table.
const (
	keySQLitePath       = "storage.sqlite.path"
	keyTimescaleConn    = "storage.timescaledb.connection_string"
	keyListenAddr       = "server.listen_addr"
	keyPort             = "server.port"
	keyTLSCert          = "server.tls_cert_path"
	keyTLSKey           = "server.tls_key_path"
	keyBatchRoot        = "batch.root"
	keyBatchReference   = "batch.reference_name"
	keyBatchDerived     = "batch.derived_name"
	keyBatchOutput      = "batch.output_name"
	keyBatchMerged      = "batch.merged_name"
	keyOverlapTolerance = "batch.overlap.tolerance"
	keyOverlapStart     = "batch.overlap.start"
	keyOverlapEnd       = "batch.overlap.end"
)

func applySettings(cfg *ConfigData, settings map[string]string) error {
	for k, v := range settings {
		switch k {
		case keySQLitePath:
			cfg.Storage.SQLite = &SQLiteData{Path: v}
		case keyTimescaleConn:
			cfg.Storage.TimescaleDB = &TimescaleDBData{ConnectionString: v}
		case keyListenAddr:
			cfg.Server.ListenAddr = v
		case keyPort:
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("setting %s: %w", k, err)
			}
			cfg.Server.Port = port
		case keyTLSCert:
			cfg.Server.TLSCertPath = v
		case keyTLSKey:
			cfg.Server.TLSKeyPath = v
		case keyBatchRoot:
			cfg.Batch.Root = v
		case keyBatchReference:
			cfg.Batch.ReferenceName = v
		case keyBatchDerived:
			cfg.Batch.DerivedName = v
		case keyBatchOutput:
			cfg.Batch.OutputName = v
		case keyBatchMerged:
			cfg.Batch.MergedName = v
		case keyOverlapTolerance, keyOverlapStart, keyOverlapEnd:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("setting %s: %w", k, err)
			}
			if cfg.Batch.Overlap == nil {
				cfg.Batch.Overlap = &OverlapData{}
			}
			switch k {
			case keyOverlapTolerance:
				cfg.Batch.Overlap.Tolerance = f
			case keyOverlapStart:
				cfg.Batch.Overlap.Start = &f
			case keyOverlapEnd:
				cfg.Batch.Overlap.End = &f
			}
		default:
			return fmt.Errorf("unknown setting %q", k)
		}
	}
	return nil
}

func settingsFrom(cfg *ConfigData) map[string]string {
	out := make(map[string]string)
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}

	if cfg.Storage.SQLite != nil {
		put(keySQLitePath, cfg.Storage.SQLite.Path)
	}
	if cfg.Storage.TimescaleDB != nil {
		put(keyTimescaleConn, cfg.Storage.TimescaleDB.ConnectionString)
	}

	put(keyListenAddr, cfg.Server.ListenAddr)
	if cfg.Server.Port != 0 {
		put(keyPort, strconv.Itoa(cfg.Server.Port))
	}
	put(keyTLSCert, cfg.Server.TLSCertPath)
	put(keyTLSKey, cfg.Server.TLSKeyPath)

	put(keyBatchRoot, cfg.Batch.Root)
	put(keyBatchReference, cfg.Batch.ReferenceName)
	put(keyBatchDerived, cfg.Batch.DerivedName)
	put(keyBatchOutput, cfg.Batch.OutputName)
	put(keyBatchMerged, cfg.Batch.MergedName)
	if o := cfg.Batch.Overlap; o != nil {
		out[keyOverlapTolerance] = strconv.FormatFloat(o.Tolerance, 'g', -1, 64)
		if o.Start != nil {
			out[keyOverlapStart] = strconv.FormatFloat(*o.Start, 'g', -1, 64)
		}
		if o.End != nil {
			out[keyOverlapEnd] = strconv.FormatFloat(*o.End, 'g', -1, 64)
		}
	}
	return out
}
