package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSmokeFlow exercises the built binary end to end through the
// configuration surface, which needs no container daemon or chain
// endpoint: create a profile, store a bundle, and read it back.
func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	_, stderr, err := runSlotctl(t, binaryPath, home, "profile", "create", "staking")
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runSlotctl(t, binaryPath, home, "profile", "use", "staking")
	require.NoError(t, err, "stderr: %s", stderr)

	_, stderr, err = runSlotctl(t, binaryPath, home,
		"configure",
		"--market", "uniswapv2",
		"--wallet", "0xabcdef0123456789abcdef0123456789abcdef01",
		"--signer", "0xabcdef0123456789abcdef0123456789abcdef02",
		"--signer-key-ref", "keyring://staking-signer",
		"--source-rpc", "https://eth.example.com",
		"--image", "slotwise/slot-node:latest",
	)
	require.NoError(t, err, "stderr: %s", stderr)

	stdout, stderr, err := runSlotctl(t, binaryPath, home, "profile", "show")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "profile: staking")
	assert.Contains(t, stdout, "mainnet/uniswapv2")

	profilesPath := filepath.Join(home, ".slotctl", "profiles.toml")
	data, err := os.ReadFile(profilesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "staking")
	assert.Contains(t, string(data), "uniswapv2")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "slotctl-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/slotctl")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build slotctl binary: %s", string(output))
	return binaryPath
}

func runSlotctl(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}
