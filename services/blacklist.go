package services

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PasswordBlacklist holds common passwords, compared case-insensitively.
type PasswordBlacklist map[string]struct{}

func NewPasswordBlacklist(passwords ...string) PasswordBlacklist {
	list := make(PasswordBlacklist, len(passwords))
	for _, p := range passwords {
		list.add(p)
	}
	return list
}

func (b PasswordBlacklist) add(password string) {
	if password = strings.TrimSpace(password); password != "" {
		b[strings.ToLower(password)] = struct{}{}
	}
}

// Contains is false for a nil list.
func (b PasswordBlacklist) Contains(password string) bool {
	_, ok := b[strings.ToLower(strings.TrimSpace(password))]
	return ok
}

// ParsePasswordBlacklist reads one password per line. Blank lines and lines
// starting with '#' are ignored.
func ParsePasswordBlacklist(r io.Reader) (PasswordBlacklist, error) {
	list := PasswordBlacklist{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		list.add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read password blacklist: %w", err)
	}
	return list, nil
}

func LoadPasswordBlacklist(path string) (PasswordBlacklist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open password blacklist: %w", err)
	}
	defer f.Close()
	return ParsePasswordBlacklist(f)
}
