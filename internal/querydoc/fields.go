package querydoc

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"cuelang.org/go/cue"
	"gopkg.in/yaml.v3"

	"github.com/roach88/jiraq/internal/jql"
)

// fieldFile is the on-disk shape of a field registration table:
//
//	fields:
//	  Summary: {contains: true}
//	  Type: {name: issuetype}
type fieldFile struct {
	Fields map[string]jql.FieldMeta `yaml:"fields" json:"fields"`
}

func (f fieldFile) table() *jql.FieldTable {
	t := jql.NewFieldTable()
	for id, meta := range f.Fields {
		t.Register(id, meta)
	}
	return t
}

// LoadFields reads a field table, choosing the decoder by file extension.
func LoadFields(path string) (*jql.FieldTable, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return LoadFieldsYAML(path)
	case ".json":
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		var f fieldFile
		if err := strictJSON(data, &f); err != nil {
			return nil, err
		}
		return f.table(), nil
	case ".cue":
		return LoadFieldsCUE(path)
	default:
		return nil, loadErr(ErrCodeFormat, "", "unsupported field file %s: want .yaml, .yml, .json or .cue", path)
	}
}

// LoadFieldsYAML reads a YAML field table.
func LoadFieldsYAML(path string) (*jql.FieldTable, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFieldsYAML(data)
}

// ParseFieldsYAML decodes a YAML field table.
func ParseFieldsYAML(data []byte) (*jql.FieldTable, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var f fieldFile
	if err := decoder.Decode(&f); err != nil {
		return nil, wrapDecodeErr(err)
	}
	return f.table(), nil
}

// LoadFieldsCUE reads a CUE field table.
func LoadFieldsCUE(path string) (*jql.FieldTable, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFieldsCUE(data, path)
}

// ParseFieldsCUE compiles CUE source and extracts its "fields" struct.
func ParseFieldsCUE(data []byte, filename string) (*jql.FieldTable, error) {
	value, err := compileCUE(data, filename)
	if err != nil {
		return nil, err
	}
	fields := value.LookupPath(cue.ParsePath("fields"))
	if !fields.Exists() {
		return nil, loadErr(ErrCodeNoDocument, "fields", "field table not found")
	}
	if err := fields.Validate(cue.Concrete(true)); err != nil {
		return nil, cueErr(err)
	}
	raw, err := fields.MarshalJSON()
	if err != nil {
		return nil, cueErr(err)
	}

	var f fieldFile
	if err := json.Unmarshal(raw, &f.Fields); err != nil {
		return nil, wrapDecodeErr(err)
	}
	return f.table(), nil
}
