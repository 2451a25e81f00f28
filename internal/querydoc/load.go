package querydoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Load reads the query documents in path, choosing the decoder by file
// extension: .yaml/.yml, .json or .cue.
func Load(path string) ([]*Document, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".json":
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		return ParseJSON(data)
	case ".cue":
		return LoadCUE(path)
	default:
		return nil, loadErr(ErrCodeFormat, "", "unsupported query file %s: want .yaml, .yml, .json or .cue", path)
	}
}

// LoadYAML reads a YAML file holding one or more query documents
// separated by "---".
func LoadYAML(path string) ([]*Document, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML decodes one or more YAML query documents. Unknown keys are
// rejected.
func ParseYAML(data []byte) ([]*Document, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var docs []*Document
	for {
		var doc Document
		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapDecodeErr(err)
		}
		docs = append(docs, &doc)
	}
	return checkDocuments(docs)
}

// ParseJSON decodes a single JSON query document or a JSON array of them.
func ParseJSON(data []byte) ([]*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []*Document
		if err := strictJSON(trimmed, &docs); err != nil {
			return nil, err
		}
		return checkDocuments(docs)
	}
	var doc Document
	if err := strictJSON(trimmed, &doc); err != nil {
		return nil, err
	}
	return checkDocuments([]*Document{&doc})
}

// LoadCUE reads a CUE file. A top-level "query" field holds a single
// document; a top-level "queries" struct holds documents keyed by name,
// and a document without its own name takes its key.
func LoadCUE(path string) ([]*Document, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCUE(data, path)
}

// ParseCUE compiles CUE source and extracts its query documents.
func ParseCUE(data []byte, filename string) ([]*Document, error) {
	value, err := compileCUE(data, filename)
	if err != nil {
		return nil, err
	}

	var docs []*Document
	if single := value.LookupPath(cue.ParsePath("query")); single.Exists() {
		doc, err := cueDocument(single)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if many := value.LookupPath(cue.ParsePath("queries")); many.Exists() {
		iter, err := many.Fields()
		if err != nil {
			return nil, cueErr(err)
		}
		var named []*Document
		for iter.Next() {
			doc, err := cueDocument(iter.Value())
			if err != nil {
				return nil, err
			}
			if doc.Name == "" {
				doc.Name = iter.Label()
			}
			named = append(named, doc)
		}
		sort.SliceStable(named, func(i, j int) bool { return named[i].Name < named[j].Name })
		docs = append(docs, named...)
	}

	return checkDocuments(docs)
}

func compileCUE(data []byte, filename string) (cue.Value, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return cue.Value{}, cueErr(err)
	}
	return value, nil
}

func cueDocument(v cue.Value) (*Document, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueErr(err)
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, cueErr(err)
	}
	var doc Document
	if err := strictJSON(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func strictJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return wrapDecodeErr(err)
	}
	return nil
}

// wrapDecodeErr keeps LoadErrors raised by Value decoding and wraps
// everything else as a parse error.
func wrapDecodeErr(err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{Code: ErrCodeParse, Message: err.Error()}
}

func checkDocuments(docs []*Document) ([]*Document, error) {
	if len(docs) == 0 {
		return nil, loadErr(ErrCodeNoDocument, "", "no query documents found")
	}
	for i, d := range docs {
		if d.Name == "" {
			return nil, loadErr(ErrCodeNoDocument, fmt.Sprintf("[%d]", i), "name is required")
		}
	}
	return docs, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("failed to read %s: %v", path, err)}
	}
	return data, nil
}
