package termmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

// Filename is "term_map.<src>-<tgt>.json" using base language codes, so
// "zh-Hant" and "zh-CN" share one glossary.
func Filename(sourceLang, targetLang string) string {
	return fmt.Sprintf("term_map.%s-%s.json", baseCode(sourceLang), baseCode(targetLang))
}

func FilePath(dir, sourceLang, targetLang string) string {
	return filepath.Join(dir, Filename(sourceLang, targetLang))
}

// Nearest returns the glossary closest to dir, searching dir and then each
// ancestor. It returns "" when there is none.
func Nearest(dir, sourceLang, targetLang string) string {
	name := Filename(sourceLang, targetLang)
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads a glossary file. Keys and values are trimmed and entries with
// a blank side are dropped.
func Load(path string) (TermMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s is not a JSON object of strings: %w", filepath.Base(path), err)
	}

	tm := make(TermMap, len(raw))
	for source, target := range raw {
		source, target = strings.TrimSpace(source), strings.TrimSpace(target)
		if source == "" || target == "" {
			continue
		}
		tm[source] = target
	}
	return tm, nil
}

// Save writes tm as indented JSON through a temporary file and a rename, so
// readers never see a half-written glossary.
func Save(path string, tm TermMap) error {
	if tm == nil {
		tm = TermMap{}
	}
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".term_map-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Resolve loads the glossary for a subtitle file. An explicit path must
// load; otherwise the nearest glossary above the input is used if present.
// The returned path is empty when nothing was loaded.
func Resolve(inputPath, explicitPath, sourceLang, targetLang string) (TermMap, string, error) {
	path := explicitPath
	if path == "" {
		if sourceLang == "" || targetLang == "" {
			return nil, "", nil
		}
		if path = Nearest(filepath.Dir(inputPath), sourceLang, targetLang); path == "" {
			return nil, "", nil
		}
	}

	tm, err := Load(path)
	if err != nil {
		if explicitPath == "" && errors.Is(err, fs.ErrNotExist) {
			// removed between Nearest and Load
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("load term map %s: %w", path, err)
	}
	return tm, path, nil
}

// baseCode reduces a language tag to its base subtag ("pt-BR" -> "pt").
// Unparseable input is used verbatim.
func baseCode(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	base, _ := tag.Base()
	return base.String()
}
