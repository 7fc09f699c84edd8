package leakwatch

import (
	"runtime/debug"
	"time"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"

	"github.com/leakwatch/leakwatch/internal/config"
	"github.com/leakwatch/leakwatch/internal/ghsearch"
)

func selfUpdate() error {
	v := version
	// Use build info if tag overridden at build-time
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	_, err = selfupdate.UpdateSelf(semver3.MustParse(ver.String()), "leakwatch/leakwatch")
	return err
}

func credentialsFrom(cfg config.FileConfig) []ghsearch.Credential {
	creds := make([]ghsearch.Credential, 0, len(cfg.GitHub.Credentials))
	for _, c := range cfg.GitHub.Credentials {
		creds = append(creds, ghsearch.Credential{ID: c.ID, Token: c.Token})
	}
	return creds
}

// CLI flags win over config file values when set.

func pickString(cli, file string) string {
	if cli != "" {
		return cli
	}
	return file
}

func pickInt(cli, file int) int {
	if cli != 0 {
		return cli
	}
	return file
}

func pickDuration(cli, file time.Duration) time.Duration {
	if cli != 0 {
		return cli
	}
	return file
}
