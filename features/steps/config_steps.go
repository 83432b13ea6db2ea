//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reels-relay/infrastructure/config"

	"github.com/cucumber/godog"
)

// configEnv lists every variable a scenario may touch
var configEnv = []string{
	config.EnvTikTokUsername,
	config.EnvInstagramToken,
	config.EnvGoogleCreds,
	config.EnvDriveFolderID,
	config.EnvArchiveBackend,
	config.EnvS3Bucket,
}

type configContext struct {
	saved       map[string]*string
	cfg         *config.Config
	validateErr error
}

func (c *configContext) restore() {
	for name, value := range c.saved {
		if value == nil {
			os.Unsetenv(name)
		} else {
			os.Setenv(name, *value)
		}
	}
	c.saved = nil
}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	testCtx := &configContext{}

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.saved = make(map[string]*string)
		for _, name := range configEnv {
			if value, ok := os.LookupEnv(name); ok {
				testCtx.saved[name] = &value
			} else {
				testCtx.saved[name] = nil
			}
			os.Unsetenv(name)
		}
		testCtx.cfg = nil
		testCtx.validateErr = nil
		return c, nil
	})

	// Restore the process environment after each scenario
	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		testCtx.restore()
		return c, nil
	})

	ctx.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, testCtx.theEnvironmentVariableIs)
	ctx.Step(`^I load the configuration$`, testCtx.iLoadTheConfiguration)
	ctx.Step(`^the configuration should be valid$`, testCtx.theConfigurationShouldBeValid)
	ctx.Step(`^the configuration should report "([^"]*)" as missing$`, testCtx.theConfigurationShouldReportAsMissing)
	ctx.Step(`^archiving should be (enabled|disabled)$`, testCtx.archivingShouldBe)
}

func (c *configContext) theEnvironmentVariableIs(name, value string) error {
	if _, tracked := c.saved[name]; !tracked {
		if old, ok := os.LookupEnv(name); ok {
			c.saved[name] = &old
		} else {
			c.saved[name] = nil
		}
	}
	return os.Setenv(name, value)
}

func (c *configContext) iLoadTheConfiguration() error {
	c.cfg = config.Default()
	config.ApplyEnv(c.cfg)
	c.validateErr = c.cfg.Validate()
	return nil
}

func (c *configContext) theConfigurationShouldBeValid() error {
	if c.validateErr != nil {
		return fmt.Errorf("expected valid configuration, got: %v", c.validateErr)
	}
	return nil
}

func (c *configContext) theConfigurationShouldReportAsMissing(name string) error {
	var missing *config.MissingError
	if !errors.As(c.validateErr, &missing) {
		return fmt.Errorf("expected MissingError, got: %v", c.validateErr)
	}
	for _, n := range missing.Names {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("expected %s in %v", name, missing.Names)
}

func (c *configContext) archivingShouldBe(state string) error {
	want := state == "enabled"
	if got := c.cfg.ArchiveEnabled(); got != want {
		return fmt.Errorf("expected archiving %s, got enabled=%v", state, got)
	}
	return nil
}
