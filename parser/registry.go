package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	byExt      = map[string]Decoder{}
	byName     = map[string]Decoder{}
)

// Register makes a decoder available by name and by file extension.
// Format packages call it from init.
func Register(dec Decoder, exts ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	byName[strings.ToLower(dec.Name())] = dec
	for _, ext := range exts {
		byExt[strings.ToLower(ext)] = dec
	}
}

// Lookup returns the decoder registered under name.
func Lookup(name string) (Decoder, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	dec, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (known: %s)", name, strings.Join(namesLocked(), ", "))
	}
	return dec, nil
}

// ForPath picks a decoder from the extension of path.
func ForPath(path string) (Decoder, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	dec, ok := byExt[strings.ToLower(filepath.Ext(path))]
	return dec, ok
}

// Names lists the registered format names.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
