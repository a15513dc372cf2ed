package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/google/angle-sub000/internal/driver"
	"github.com/google/angle-sub000/internal/version"
)

type versionInfo struct {
	Version     string
	GitCommit   string
	GitMessage  string
	BuildDate   string
	GoVersion   string
	CacheSchema uint16
}

type versionOptions struct {
	format      string
	showHash    bool
	showMessage bool
	showDate    bool
	showRuntime bool
}

// versionField is one optional line of the version output.
type versionField struct {
	label string
	key   string
	value string
	shown bool
}

func (info versionInfo) fields(opts versionOptions) []versionField {
	return []versionField{
		{"commit", "git_commit", info.GitCommit, opts.showHash},
		{"message", "git_message", info.GitMessage, opts.showMessage},
		{"built", "build_date", info.BuildDate, opts.showDate},
		{"go", "go_version", info.GoVersion, opts.showRuntime},
		{"cache", "cache_schema", strconv.Itoa(int(info.CacheSchema)), opts.showRuntime},
	}
}

var versionFlags struct {
	format  string
	hash    bool
	message bool
	date    bool
	runtime bool
	full    bool
}

func init() {
	f := versionCmd.Flags()
	f.BoolVar(&versionFlags.hash, "hash", false, "include git commit hash")
	f.BoolVar(&versionFlags.message, "message", false, "include git commit message")
	f.BoolVar(&versionFlags.date, "date", false, "include build timestamp")
	f.BoolVar(&versionFlags.runtime, "runtime", false, "include Go version and cache schema")
	f.BoolVar(&versionFlags.full, "full", false, "show everything above")
	f.StringVar(&versionFlags.format, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show angleir build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := versionOptions{
			format:      strings.ToLower(versionFlags.format),
			showHash:    versionFlags.hash || versionFlags.full,
			showMessage: versionFlags.message || versionFlags.full,
			showDate:    versionFlags.date || versionFlags.full,
			showRuntime: versionFlags.runtime || versionFlags.full,
		}
		info := collectVersionInfo()
		switch opts.format {
		case "json":
			return renderVersionJSON(cmd.OutOrStdout(), info, opts)
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout(), info, opts)
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFlags.format)
	},
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.String())
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:     v,
		GitCommit:   strings.TrimSpace(version.GitCommit),
		GitMessage:  strings.TrimSpace(version.GitMessage),
		BuildDate:   strings.TrimSpace(version.BuildDate),
		GoVersion:   runtime.Version(),
		CacheSchema: driver.CacheSchema(),
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions) {
	v := info.Version
	if v == version.String() {
		v = version.Pretty()
	}
	fmt.Fprintf(out, "angleir %s\n", v)
	for _, f := range info.fields(opts) {
		if f.shown {
			fmt.Fprintf(out, "%-8s %s\n", f.label+":", valueOrUnknown(f.value))
		}
	}
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := map[string]string{
		"tool":    "angleir",
		"version": info.Version,
	}
	for _, f := range info.fields(opts) {
		if f.shown {
			payload[f.key] = valueOrUnknown(f.value)
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
