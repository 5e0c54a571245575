package tablekit

import (
	"regexp"
	"sync"
)

// Built-in validation patterns, keyed by pattern id. Custom patterns
// registered through Config shadow these.
var builtinPatterns = map[string]string{
	"any":         `^.*$`,
	"bool":        `^[01]$`,
	"binary":      `^(1|0)+$`,
	"cnpj_cpf":    `^([0-9A-Z]{2}[\.]?[0-9A-Z]{3}[\.]?[0-9A-Z]{3}[\/]?[0-9A-Z]{4}[-]?[0-9]{2})$|^([0-9]{3}[\.]?[0-9]{3}[\.]?[0-9]{3}[-]?[0-9]{2})$`,
	"cnpj":        `^([0-9A-Z]{2}[\.]?[0-9A-Z]{3}[\.]?[0-9A-Z]{3}[\/]?[0-9A-Z]{4}[-]?[0-9]{2})$`,
	"cpf":         `^([0-9]{3}[\.]?[0-9]{3}[\.]?[0-9]{3}[-]?[0-9]{2})$`,
	"cep":         `^\d{5}-?\d{3}$`,
	"date":        `^[0-9]{2}[\\\/\-]?[0-9]{2}[\\\/\-]?[0-9]{4}$`,
	"datetime":    `^[0-9]{2}[\\\/\-]?[0-9]{2}[\\\/\-]?[0-9]{4}(\s+[0-9]{2}:[0-9]{2}(:[0-9]{2})?)?$`,
	"email":       `^[\w\.-]+@([\w-]+\.)+[\w-]{2,4}$`,
	"IP":          `^(\d{1,3}\.){3}\d{1,3}$|^([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}$`,
	"ipv4":        `^(\d{1,3}\.){3}\d{1,3}$`,
	"ipv6":        `^([0-9a-fA-F]{0,4}:){2,7}[0-9a-fA-F]{0,4}$`,
	"number":      `^(?:\(?\d{2}\)?\s?)?9?\d{4}-?\d{4}$`,
	"onlyLetters": `^[a-zA-Z\s]+$`,
	"onlyNumbers": `^[0-9]+$`,
	"password":    `^\w{8,}$`,
	"url":         `^(https?:\/\/)?([\w.-]+)\.([a-z]{2,})([\/\w.-]*)*\/?$`,
	"plaintxt":    `^[\s\S]*$`,
}

// patternSet resolves pattern ids to compiled regexps, custom first.
// Compilations are cached; a DB owns one set built from its Config.
type patternSet struct {
	custom map[string]string

	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

func newPatternSet(custom map[string]string) *patternSet {
	return &patternSet{
		custom:   custom,
		compiled: map[string]*regexp.Regexp{},
	}
}

// lookup returns the compiled pattern for id, or nil when the id is
// unknown or its pattern does not compile. An unknown id never blocks a
// value; only an explicit mismatch does.
func (ps *patternSet) lookup(id string) *regexp.Regexp {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if re, ok := ps.compiled[id]; ok {
		return re
	}
	src, ok := ps.custom[id]
	if !ok {
		src, ok = builtinPatterns[id]
	}
	var re *regexp.Regexp
	if ok {
		re, _ = regexp.Compile(src)
	}
	ps.compiled[id] = re
	return re
}

// Match reports whether value matches the pattern registered under id.
// Unknown ids match everything.
func (ps *patternSet) Match(id, value string) bool {
	re := ps.lookup(id)
	if re == nil {
		return true
	}
	return re.MatchString(value)
}

// defaultPatterns is used by entities not attached to a configured DB.
var defaultPatterns = newPatternSet(nil)
