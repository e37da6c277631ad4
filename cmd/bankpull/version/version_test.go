package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/flarebyte/bankpull/internal/buildinfo"
)

func runVersion(t *testing.T, short, asJSON bool) (string, string) {
	t.Helper()
	oldVersion, oldCommit, oldDate := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	oldShort, oldJSON := flagShort, flagJSON
	defer func() {
		buildinfo.Version, buildinfo.Commit, buildinfo.Date = oldVersion, oldCommit, oldDate
		flagShort, flagJSON = oldShort, oldJSON
		VersionCmd.SetOut(nil)
		VersionCmd.SetErr(nil)
	}()

	buildinfo.Version = ""
	buildinfo.Commit = ""
	buildinfo.Date = ""
	flagShort = short
	flagJSON = asJSON

	var out, errOut bytes.Buffer
	VersionCmd.SetOut(&out)
	VersionCmd.SetErr(&errOut)
	if err := VersionCmd.RunE(VersionCmd, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String(), errOut.String()
}

func TestVersionDefaultOutputStable(t *testing.T) {
	got, _ := runVersion(t, false, false)
	if got != "bankpull dev\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestVersionShort(t *testing.T) {
	got, _ := runVersion(t, true, true)
	if got != "dev\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestVersionJSON(t *testing.T) {
	got, human := runVersion(t, false, true)
	var info buildinfo.Info
	if err := json.Unmarshal([]byte(got), &info); err != nil {
		t.Fatalf("decode: %v (%q)", err, got)
	}
	if info.Version != "dev" || info.Go == "" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if human != "bankpull version: dev\n" {
		t.Fatalf("unexpected stderr: %q", human)
	}
}
