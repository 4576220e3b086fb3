// Command replay runs a scripted battle headlessly and prints the state
// digest after every step. With -verify it executes the script twice and
// fails if any digest differs, which catches nondeterminism in the rules
// engine.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wargrid/wargrid/internal/core/observability/log"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "scenario.yaml", "battle scenario file (yaml or json)")
		scriptPath   = flag.String("script", "script.yaml", "replay script file")
		verify       = flag.Bool("verify", false, "run the script twice and compare digests")
		quiet        = flag.Bool("q", false, "suppress per-step output")
	)
	flag.Parse()

	logger := log.New(log.LevelWarn)
	if err := run(*scenarioPath, *scriptPath, *verify, *quiet, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(scenarioPath, scriptPath string, verify, quiet bool, logger log.Log) error {
	script, err := LoadScript(scriptPath)
	if err != nil {
		return err
	}

	first, err := Execute(scenarioPath, script)
	if err != nil {
		return err
	}
	if !quiet {
		for _, step := range first.Steps {
			fmt.Printf("%3d %-10s %-12s %s\n", step.Index, step.Op, step.Outcome, step.Digest)
		}
		fmt.Printf("final digest: %s\n", first.Final)
	}

	if !verify {
		return nil
	}

	second, err := Execute(scenarioPath, script)
	if err != nil {
		return err
	}
	for i := range first.Steps {
		if first.Steps[i].Digest != second.Steps[i].Digest {
			return fmt.Errorf("digest diverged at step %d: %s vs %s",
				i, first.Steps[i].Digest, second.Steps[i].Digest)
		}
	}
	if first.Final != second.Final {
		return fmt.Errorf("final digest diverged: %s vs %s", first.Final, second.Final)
	}
	logger.Info("replay verified", log.Int("steps", len(first.Steps)))
	if !quiet {
		fmt.Println("replay verified: both runs produced identical digests")
	}
	return nil
}
