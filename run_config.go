package tollzone

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const configDTD = "http://www.matsim.org/files/dtd/config_v2.dtd"

// ConfigParam is a named value of config module or parameter set
type ConfigParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConfigParameterSet is a typed group of params nested into config module
type ConfigParameterSet struct {
	Type          string               `xml:"type,attr"`
	Params        []ConfigParam        `xml:"param"`
	ParameterSets []ConfigParameterSet `xml:"parameterset"`
}

// ConfigModule is a named group of params
type ConfigModule struct {
	Name          string               `xml:"name,attr"`
	Params        []ConfigParam        `xml:"param"`
	ParameterSets []ConfigParameterSet `xml:"parameterset"`
}

// RunConfig is a simulation framework configuration (or overlay of it). Modules and params keep insertion order
type RunConfig struct {
	XMLName xml.Name        `xml:"config"`
	Modules []*ConfigModule `xml:"module"`
}

// NewRunConfig creates empty configuration
func NewRunConfig() *RunConfig {
	return &RunConfig{}
}

// Module returns module by name
func (cfg *RunConfig) Module(name string) (*ConfigModule, bool) {
	for _, module := range cfg.Modules {
		if module.Name == name {
			return module, true
		}
	}
	return nil, false
}

// SetParam sets param value creating module if needed
func (cfg *RunConfig) SetParam(module, name, value string) error {
	if strings.TrimSpace(module) == "" {
		return configError("config module name is empty")
	}
	if strings.TrimSpace(name) == "" {
		return configError("param name of module '%s' is empty", module)
	}
	m, ok := cfg.Module(module)
	if !ok {
		m = &ConfigModule{Name: module}
		cfg.Modules = append(cfg.Modules, m)
	}
	for i := range m.Params {
		if m.Params[i].Name == name {
			m.Params[i].Value = value
			return nil
		}
	}
	m.Params = append(m.Params, ConfigParam{Name: name, Value: value})
	return nil
}

// Param returns param value
func (cfg *RunConfig) Param(module, name string) (string, bool) {
	m, ok := cfg.Module(module)
	if !ok {
		return "", false
	}
	for _, param := range m.Params {
		if param.Name == name {
			return param.Value, true
		}
	}
	return "", false
}

// Merge sets every param of other configuration into this one. Parameter sets of other modules are appended
func (cfg *RunConfig) Merge(other *RunConfig) error {
	for _, module := range other.Modules {
		for _, param := range module.Params {
			if err := cfg.SetParam(module.Name, param.Name, param.Value); err != nil {
				return err
			}
		}
		if len(module.ParameterSets) > 0 {
			m, ok := cfg.Module(module.Name)
			if !ok {
				m = &ConfigModule{Name: module.Name}
				cfg.Modules = append(cfg.Modules, m)
			}
			m.ParameterSets = append(m.ParameterSets, module.ParameterSets...)
		}
	}
	return nil
}

// WriteRunConfig writes configuration in the framework's config_v2 XML format
func WriteRunConfig(cfg *RunConfig, fname string) error {
	return writeFileAtomic(fname, func(w io.Writer) error {
		if err := EncodeRunConfig(cfg, w); err != nil {
			return ioError(err, "can't write config '%s'", fname)
		}
		return nil
	})
}

// EncodeRunConfig writes configuration XML into writer
func EncodeRunConfig(cfg *RunConfig, w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header+"<!DOCTYPE config SYSTEM \""+configDTD+"\">\n"); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "\t")
	if err := encoder.Encode(cfg); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadRunConfig reads configuration in the framework's config_v2 XML format
func ReadRunConfig(fname string) (*RunConfig, error) {
	rc, err := openMaybeGzip(fname)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	cfg := &RunConfig{}
	if err := xml.NewDecoder(rc).Decode(cfg); err != nil {
		return nil, errors.Wrapf(malformedError(err, "can't parse config XML"), "config '%s'", fname)
	}
	return cfg, nil
}
