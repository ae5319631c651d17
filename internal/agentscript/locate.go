package agentscript

import (
	"fmt"
	"os"
	"path/filepath"
)

// bundleDir is the DX project layout under which authoring bundles live.
const bundleDir = "force-app/main/default/aiAuthoringBundles"

// FindAgentFile resolves which .agent file to work on. An explicit
// file wins. A directory is scanned for *.agent entries directly,
// then under its DX bundle path for the named agent. With neither,
// the working directory's bundle for the named agent is tried.
// Matches within a directory are taken in sorted order, so the same
// inputs always resolve to the same file.
func FindAgentFile(name, dir, file string) (string, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return "", fmt.Errorf("agent file not found: %s", file)
		}
		return file, nil
	}

	if dir != "" {
		if found := firstAgentFile(dir); found != "" {
			return found, nil
		}
		if name != "" {
			if found := firstAgentFile(filepath.Join(dir, bundleDir, name)); found != "" {
				return found, nil
			}
		}
		return "", fmt.Errorf("no .agent file found in %s", dir)
	}

	if name != "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		if found := firstAgentFile(filepath.Join(cwd, bundleDir, name)); found != "" {
			return found, nil
		}
		return "", fmt.Errorf("could not find agent file for %s", name)
	}

	return "", fmt.Errorf("no agent file, directory, or name given")
}

func firstAgentFile(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.agent"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}
