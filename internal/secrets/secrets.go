// Package secrets stores the portal credentials and bot token encrypted at
// rest with age. The decrypted values exist only in process memory.
package secrets

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"gopkg.in/yaml.v3"
)

// EnvIdentity is the environment variable that can carry the age secret
// key directly, taking precedence over the identity file.
const EnvIdentity = "JORNADA_IDENTITY"

// Secrets are the decrypted credential values.
type Secrets struct {
	HRUsername   string `yaml:"hr_username"`
	HRPassword   string `yaml:"hr_password"`
	EmployeeCode int    `yaml:"employee_code"`
	BotToken     string `yaml:"bot_token"`
	ChatID       int64  `yaml:"chat_id"`
}

func (s *Secrets) validate() error {
	if s.HRUsername == "" || s.HRPassword == "" {
		return fmt.Errorf("hr_username and hr_password are required")
	}
	if s.EmployeeCode <= 0 {
		return fmt.Errorf("employee_code must be a positive number")
	}
	return nil
}

// Load decrypts and parses the secrets file. The identity comes from the
// JORNADA_IDENTITY environment variable or, failing that, identityPath.
func Load(path, identityPath string) (*Secrets, error) {
	identity, err := loadIdentity(identityPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open secrets file: %w", err)
	}
	defer f.Close()

	r, err := age.Decrypt(f, identity)
	if err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}

	var s Secrets
	if err := yaml.Unmarshal(plaintext, &s); err != nil {
		return nil, fmt.Errorf("parse secrets: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("secrets file: %w", err)
	}
	return &s, nil
}

// Encrypt reads a plaintext secrets YAML and writes it encrypted for the
// identity's recipient. Used by the one-time setup path.
func Encrypt(plaintextPath, outputPath, identityPath string) error {
	identity, err := loadIdentity(identityPath)
	if err != nil {
		return err
	}

	plaintext, err := os.ReadFile(plaintextPath)
	if err != nil {
		return fmt.Errorf("read plaintext secrets: %w", err)
	}

	// Validate before writing so a broken file is caught at setup time,
	// not on the first bot command.
	var s Secrets
	if err := yaml.Unmarshal(plaintext, &s); err != nil {
		return fmt.Errorf("parse plaintext secrets: %w", err)
	}
	if err := s.validate(); err != nil {
		return fmt.Errorf("plaintext secrets: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, identity.Recipient())
	if err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("encrypt secrets: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write encrypted secrets: %w", err)
	}
	return nil
}

// GenerateIdentity creates a new age identity file with 0600 permissions
// and returns the identity.
func GenerateIdentity(path string) (*age.X25519Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	content := fmt.Sprintf("# public key: %s\n%s\n", identity.Recipient(), identity)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, fmt.Errorf("write identity file: %w", err)
	}
	return identity, nil
}

func loadIdentity(identityPath string) (*age.X25519Identity, error) {
	if key := os.Getenv(EnvIdentity); key != "" {
		identity, err := age.ParseX25519Identity(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvIdentity, err)
		}
		return identity, nil
	}

	f, err := os.Open(identityPath)
	if err != nil {
		return nil, fmt.Errorf("no %s set and cannot open identity file: %w", EnvIdentity, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		identity, err := age.ParseX25519Identity(line)
		if err != nil {
			return nil, fmt.Errorf("parse identity file %s: %w", identityPath, err)
		}
		return identity, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read identity file %s: %w", identityPath, err)
	}
	return nil, fmt.Errorf("identity file %s contains no key", identityPath)
}
