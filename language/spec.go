package language

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/shlex"
)

// Kinds of Spec
const (
	KindNative      = "native"
	KindVM          = "vm"
	KindInterpreted = "interpreted"
)

// Spec describes a language in configuration. Flag strings are split with
// shell quoting rules.
type Spec struct {
	Name           string   `yaml:"name"`
	Kind           string   `yaml:"kind"`
	Aliases        []string `yaml:"aliases"`
	Extension      string   `yaml:"extension"`
	Compiler       string   `yaml:"compiler"`
	CompilerFlags  string   `yaml:"compilerFlags"`
	Runtime        string   `yaml:"runtime"`
	RuntimeFlags   string   `yaml:"runtimeFlags"`
	HeapFlag       string   `yaml:"heapFlag"`
	MemoryPatterns []string `yaml:"memoryPatterns"`
}

type specFile struct {
	Languages []Spec `yaml:"languages"`
}

// DefaultSpecs returns the built-in languages
func DefaultSpecs() []Spec {
	python := "python3"
	if runtime.GOOS == "windows" {
		python = "python"
	}
	return []Spec{
		{
			Name:          "c",
			Kind:          KindNative,
			Extension:     ".c",
			Compiler:      "gcc",
			CompilerFlags: "-O2 -lm",
		},
		{
			Name:           "cpp",
			Kind:           KindNative,
			Aliases:        []string{"c++"},
			Extension:      ".cpp",
			Compiler:       "g++",
			CompilerFlags:  "-O2 -std=c++17",
			MemoryPatterns: []string{"std::bad_alloc"},
		},
		{
			Name:           "java",
			Kind:           KindVM,
			Extension:      ".java",
			Compiler:       "javac",
			CompilerFlags:  "-encoding UTF-8",
			Runtime:        "java",
			RuntimeFlags:   "-XX:+UseSerialGC",
			HeapFlag:       "-Xmx%dm",
			MemoryPatterns: []string{"java.lang.OutOfMemoryError"},
		},
		{
			Name:           "python",
			Kind:           KindInterpreted,
			Aliases:        []string{"py"},
			Extension:      ".py",
			Runtime:        python,
			MemoryPatterns: []string{"MemoryError"},
		},
		{
			Name:           "javascript",
			Kind:           KindInterpreted,
			Aliases:        []string{"js", "node"},
			Extension:      ".js",
			Runtime:        "node",
			HeapFlag:       "--max-old-space-size=%d",
			MemoryPatterns: []string{"JavaScript heap out of memory", "Allocation failed"},
		},
	}
}

// LoadSpecs reads language specs from a yaml file with a top level
// `languages` list. A missing file yields no specs.
func LoadSpecs(name string) ([]Spec, error) {
	if name == "" {
		return nil, nil
	}
	b, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var f specFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("language config %s: %w", name, err)
	}
	return f.Languages, nil
}

// MergeSpecs replaces specs in base with the overrides of the same name and
// appends the new ones
func MergeSpecs(base []Spec, overrides []Spec) []Spec {
	r := make([]Spec, len(base))
	copy(r, base)
	index := make(map[string]int, len(r))
	for i, s := range r {
		index[s.Name] = i
	}
	for _, s := range overrides {
		if i, ok := index[s.Name]; ok {
			r[i] = s
			continue
		}
		index[s.Name] = len(r)
		r = append(r, s)
	}
	return r
}

// Build creates the language described by the spec
func (s Spec) Build() (Language, error) {
	compilerFlags, err := shlex.Split(s.CompilerFlags)
	if err != nil {
		return nil, fmt.Errorf("language %s: compiler flags: %w", s.Name, err)
	}
	runtimeFlags, err := shlex.Split(s.RuntimeFlags)
	if err != nil {
		return nil, fmt.Errorf("language %s: runtime flags: %w", s.Name, err)
	}
	ext := s.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	switch s.Kind {
	case KindNative:
		if s.Compiler == "" {
			return nil, fmt.Errorf("language %s: compiler is required", s.Name)
		}
		return &Native{
			LangName:       s.Name,
			Ext:            ext,
			Compiler:       s.Compiler,
			Flags:          compilerFlags,
			MemoryPatterns: s.MemoryPatterns,
		}, nil

	case KindVM:
		if s.Compiler == "" || s.Runtime == "" {
			return nil, fmt.Errorf("language %s: compiler and runtime are required", s.Name)
		}
		return &VM{
			LangName:       s.Name,
			Ext:            ext,
			Compiler:       s.Compiler,
			Flags:          compilerFlags,
			Runtime:        s.Runtime,
			RuntimeFlags:   runtimeFlags,
			HeapFlag:       s.HeapFlag,
			MemoryPatterns: s.MemoryPatterns,
		}, nil

	case KindInterpreted:
		if s.Runtime == "" {
			return nil, fmt.Errorf("language %s: runtime is required", s.Name)
		}
		return &Interpreted{
			LangName:       s.Name,
			Ext:            ext,
			Interpreter:    s.Runtime,
			Flags:          runtimeFlags,
			HeapFlag:       s.HeapFlag,
			MemoryPatterns: s.MemoryPatterns,
		}, nil

	default:
		return nil, fmt.Errorf("language %s: unknown kind %q", s.Name, s.Kind)
	}
}
