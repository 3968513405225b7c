package version

import (
	"runtime/debug"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origRead := Version, GitCommit, readBuildInfo
	return func() {
		Version = origVersion
		GitCommit = origCommit
		readBuildInfo = origRead
	}
}

func TestGetVersionInfo_Pinned(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.2.3"
	GitCommit = "abc1234"

	info := GetVersionInfo()
	if info.Version != "1.2.3" {
		t.Errorf("expected pinned version, got %q", info.Version)
	}
	if info.GitCommit != "abc1234" {
		t.Errorf("expected commit, got %q", info.GitCommit)
	}
	if !info.IsRelease {
		t.Error("pinned version should be a release")
	}
}

func TestGetVersionInfo_FromDependency(t *testing.T) {
	defer saveAndRestore()()
	Version = "dev"
	GitCommit = ""
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.26.0",
			Main:      debug.Module{Path: "example.com/app"},
			Deps:      []*debug.Module{{Path: ModulePath, Version: "v0.4.1"}},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	}

	info := GetVersionInfo()
	if info.Version != "0.4.1" {
		t.Errorf("expected dependency version, got %q", info.Version)
	}
	if info.GitCommit != "0123456" {
		t.Errorf("expected short commit, got %q", info.GitCommit)
	}
	if !info.IsDirty {
		t.Error("expected dirty build")
	}
	if ProductVersion() != "0.4.1" {
		t.Errorf("ProductVersion() = %q", ProductVersion())
	}
}

func TestGetVersionInfo_NoBuildInfo(t *testing.T) {
	defer saveAndRestore()()
	Version = "dev"
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }

	info := GetVersionInfo()
	if info.Version != "dev" || info.IsRelease {
		t.Errorf("unexpected info %+v", info)
	}
}
