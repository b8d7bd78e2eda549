// Package botcheck classifies User-Agent strings against an embedded
// pattern database so automated traffic never reaches the interaction log.
package botcheck

import (
	"embed"
	"fmt"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

//go:embed database/bots.yml
var databaseFiles embed.FS

// BotEntry is one pattern from the embedded database.
type BotEntry struct {
	Regex    string `yaml:"regex"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
}

type regexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func (rc *regexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()
	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

type detector struct {
	bots  []BotEntry
	cache *regexCache
}

var (
	instance *detector
	once     sync.Once
)

func getDetector() *detector {
	once.Do(func() {
		instance = &detector{
			cache: &regexCache{compiled: make(map[string]*pcre.Regexp)},
		}
		if data, err := databaseFiles.ReadFile("database/bots.yml"); err == nil {
			if err := yaml.Unmarshal(data, &instance.bots); err != nil {
				fmt.Printf("Error parsing bots.yml: %v\n", err)
			}
		}
	})
	return instance
}

// DetectBot returns the first matching bot entry, or nil for human traffic.
// Entries are checked in database order; an empty user agent matches nothing.
func DetectBot(userAgent string) *BotEntry {
	if userAgent == "" {
		return nil
	}
	d := getDetector()
	for i := range d.bots {
		regex, err := d.cache.get(d.bots[i].Regex)
		if err != nil {
			continue
		}
		if regex.MatchString(userAgent) {
			return &d.bots[i]
		}
	}
	return nil
}

// IsBot reports whether the user agent belongs to a known bot.
func IsBot(userAgent string) bool {
	return DetectBot(userAgent) != nil
}
