package getopt

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/getopt/conffile"
	"github.com/lixenwraith/getopt/internal/textutil"
)

// definitionExtensions lists the definitions file formats in search order
var definitionExtensions = []string{".ini", ".toml", ".yaml", ".yml", ".json", ".jsonc", ".hcl"}

// definitionRecord is one option of a definitions file
type definitionRecord struct {
	ShortName               string   `mapstructure:"shortname"`
	Default                 string   `mapstructure:"default"`
	Help                    string   `mapstructure:"help"`
	Validator               string   `mapstructure:"validator"`
	Alias                   string   `mapstructure:"alias"`
	Allowed                 []string `mapstructure:"allowed"`
	Flags                   []string `mapstructure:"flags"`
	Separators              []string `mapstructure:"separators"`
	EnvironmentVariableName string   `mapstructure:"environment-variable-name"`
}

// DefinitionsPath returns the definitions file used by New, empty when none
// was found
func (g *Getopt) DefinitionsPath() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.definitionsFile
}

// findDefinitionsFile returns the first <project>.<ext> file present in the
// definitions directory
func (g *Getopt) findDefinitionsFile() string {
	if g.env.OptionsFilesDirectory == "" || g.env.ProjectName == "" {
		return ""
	}
	for _, ext := range definitionExtensions {
		path := filepath.Join(g.env.OptionsFilesDirectory, g.env.ProjectName+ext)
		if ok, _ := afero.Exists(g.fs, path); ok {
			return path
		}
	}
	return ""
}

// loadDefinitions reads the definitions file, if any, and merges it into
// the schema
func (g *Getopt) loadDefinitions() error {
	path := g.findDefinitionsFile()
	if path == "" {
		return nil
	}

	records, err := g.readDefinitions(path)
	if err != nil {
		return errors.Errorf("%w: %s: %v", ErrDefinitions, path, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.definitionsFile = path
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := g.applyDefinition(name, records[name]); err != nil {
			return errors.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// readDefinitions parses path into option name -> raw record, according to
// the file extension
func (g *Getopt) readDefinitions(path string) (map[string]map[string]any, error) {
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		return g.readINIDefinitions(path)
	}

	data, err := afero.ReadFile(g.fs, path)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]any)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Errorf("parsing TOML: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Errorf("parsing YAML: %w", err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, errors.Errorf("parsing JSON: %w", err)
		}
	case ".hcl":
		return parseHCLDefinitions(data, path)
	default:
		return nil, errors.Errorf("unsupported definitions format %q", filepath.Ext(path))
	}

	records := make(map[string]map[string]any, len(raw))
	for name, value := range raw {
		fields, ok := value.(map[string]any)
		if !ok {
			return nil, errors.Errorf("option %q must be a table of settings, got %T", name, value)
		}
		records[name] = fields
	}
	return records, nil
}

// readINIDefinitions reads one [option] section per option
func (g *Getopt) readINIDefinitions(path string) (map[string]map[string]any, error) {
	cache := conffile.NewCache(conffile.WithFs(g.fs), conffile.WithSink(g.sink))
	f, err := cache.Get(conffile.Setup{Filename: path})
	if err != nil {
		return nil, err
	}
	if n := f.ErrorCount(); n > 0 {
		return nil, errors.Errorf("%d error(s) reading the file", n)
	}

	records := make(map[string]map[string]any)
	for name, p := range f.Parameters() {
		idx := strings.LastIndex(name, "::")
		if idx < 0 {
			return nil, errors.Errorf("parameter %q is not in an option section", name)
		}
		option, key := name[:idx], name[idx+2:]
		if records[option] == nil {
			records[option] = make(map[string]any)
		}
		records[option][key] = p.Value
	}
	return records, nil
}

// parseHCLDefinitions reads `option "name" { ... }` blocks
func parseHCLDefinitions(data []byte, path string) (map[string]map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %w", diags)
	}

	content, diags := file.Body.Content(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "option", LabelNames: []string{"name"}}},
	})
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %w", diags)
	}

	records := make(map[string]map[string]any, len(content.Blocks))
	for _, block := range content.Blocks {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, errors.Errorf("option %q: %w", block.Labels[0], diags)
		}
		fields := make(map[string]any, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, errors.Errorf("option %q, %s: %w", block.Labels[0], name, diags)
			}
			native, err := ctyToNative(val)
			if err != nil {
				return nil, errors.Errorf("option %q, %s: %w", block.Labels[0], name, err)
			}
			fields[name] = native
		}
		records[block.Labels[0]] = fields
	}
	return records, nil
}

// ctyToNative converts the scalar and list values allowed in definitions
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, err
		}
		return b, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

// decodeDefinition normalizes the keys of fields and decodes them
func decodeDefinition(fields map[string]any) (definitionRecord, map[string]bool, error) {
	normalized := make(map[string]any, len(fields))
	present := make(map[string]bool, len(fields))
	for k, v := range fields {
		key := textutil.OptionWithDashes(strings.ToLower(k))
		normalized[key] = v
		present[key] = true
	}

	var rec definitionRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(" "),
	})
	if err != nil {
		return rec, nil, errors.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(normalized); err != nil {
		return rec, nil, err
	}
	return rec, present, nil
}

func parseShortName(s string) (rune, error) {
	if s == "" {
		return NoShortName, nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return NoShortName, logicf("short name %q must be exactly one character", s)
	}
	return r, nil
}

// applyDefinition creates the option called name or updates the settings
// present in fields. The caller holds the lock.
func (g *Getopt) applyDefinition(name string, fields map[string]any) error {
	rec, present, err := decodeDefinition(fields)
	if err != nil {
		return errors.Errorf("%w: option %q: %v", ErrDefinitions, name, err)
	}

	allowed, err := ParseFlags(strings.Join(rec.Allowed, ","))
	if err != nil {
		return err
	}
	if allowed&^FlagSourceMask != 0 {
		return logicf("option %q: \"allowed\" only takes sources, got %s", name, allowed)
	}
	flags, err := ParseFlags(strings.Join(rec.Flags, ","))
	if err != nil {
		return err
	}
	short, err := parseShortName(rec.ShortName)
	if err != nil {
		return err
	}

	name = textutil.OptionWithDashes(name)
	o, exists := g.options[name]
	if !exists {
		flags |= allowed
		if present["default"] {
			flags |= FlagHasDefault
		}
		def := OptionDefinition{
			Name:                    name,
			ShortName:               short,
			Flags:                   flags,
			Help:                    rec.Help,
			Validator:               rec.Validator,
			Separators:              rec.Separators,
			Alias:                   rec.Alias,
			EnvironmentVariableName: rec.EnvironmentVariableName,
		}
		o, err := g.newOptionFromDefinition(def)
		if err != nil {
			return err
		}
		if present["default"] {
			o.SetDefault(rec.Default)
		}
		if rec.Alias != "" {
			g.aliasTargets[o.name] = textutil.OptionWithDashes(rec.Alias)
		}
		return g.insert(o)
	}

	if present["shortname"] && short != o.shortName {
		if other, ok := g.shortNames[short]; ok && short != NoShortName {
			return logicf("short name -%c is used by --%s and --%s", short, other.name, o.name)
		}
		delete(g.shortNames, o.shortName)
		o.shortName = short
		if short != NoShortName {
			g.shortNames[short] = o
		}
	}
	if present["allowed"] {
		o.flags = o.flags&^FlagSourceMask | allowed
	}
	o.AddFlag(flags)
	if o.flags&FlagDefaultOption != 0 && g.defaultOption != o {
		if g.defaultOption != nil {
			return logicf("--%s and --%s are both marked as the default option", g.defaultOption.name, o.name)
		}
		g.defaultOption = o
	}
	if present["default"] {
		o.SetDefault(rec.Default)
	}
	if present["help"] {
		o.SetHelp(rec.Help)
	}
	if present["validator"] {
		if err := o.SetValidatorSpec(rec.Validator); err != nil {
			return err
		}
	}
	if present["separators"] {
		o.SetSeparators(rec.Separators)
	}
	if present["environment-variable-name"] {
		o.SetEnvironmentVariableName(rec.EnvironmentVariableName)
	}
	if present["alias"] {
		o.AddFlag(FlagAlias)
		g.aliasTargets[o.name] = textutil.OptionWithDashes(rec.Alias)
	}
	return nil
}
