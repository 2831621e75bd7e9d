package namegen

import (
	"bufio"
	"bytes"
	"embed"
	"sync"
)

//go:embed res
var stopwordFiles embed.FS

var stopwordCache = struct {
	sync.Mutex
	byLanguage map[string]map[string]struct{}
}{byLanguage: map[string]map[string]struct{}{}}

// loadStopwords returns the memoized word-exclusion set for a language.
// The set is parsed once from the embedded list and cached for the
// lifetime of the process.
func loadStopwords(language string) (map[string]struct{}, error) {
	stopwordCache.Lock()
	defer stopwordCache.Unlock()

	if words, ok := stopwordCache.byLanguage[language]; ok {
		return words, nil
	}

	data, err := stopwordFiles.ReadFile("res/" + language + "_stopwords.txt")
	if err != nil {
		return nil, NewStopwordLanguageError(language)
	}

	words := map[string]struct{}{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		word := bytes.TrimSpace(scanner.Bytes())
		if len(word) == 0 {
			continue
		}
		words[string(word)] = struct{}{}
	}
	stopwordCache.byLanguage[language] = words
	return words, nil
}
