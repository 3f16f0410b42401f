package symbolgraph

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	// FileSuffix is the suffix of an uncompressed symbol graph file.
	FileSuffix = ".symbols.jsonl"
	// CompressedSuffix is appended to FileSuffix for zstd-compressed graphs.
	CompressedSuffix = ".zst"
)

// IsSymbolGraphFile reports whether path names a symbol graph file.
func IsSymbolGraphFile(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), CompressedSuffix)
	return strings.HasSuffix(base, FileSuffix)
}

// ModuleNames derives the producing module and, for extension graphs, the
// extended module from a file name: "MyKit@Foundation.symbols.jsonl" is
// MyKit's extension of Foundation.
func ModuleNames(path string) (module, extended string) {
	base := strings.TrimSuffix(filepath.Base(path), CompressedSuffix)
	base = strings.TrimSuffix(base, FileSuffix)
	module, extended, _ = strings.Cut(base, "@")
	return module, extended
}

// ReadFile reads and decodes a symbol graph file, transparently
// decompressing ".zst" files.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symbol graph: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	module, extended := ModuleNames(path)
	g := &Graph{
		Path:        path,
		Module:      module,
		Extended:    extended,
		IsMainGraph: extended == "",
	}
	symbols, err := Decode(r, g)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	g.Symbols = symbols
	return g, nil
}

// Decode reads line-delimited symbol declarations. Every symbol is tagged
// with the graph's main-graph flag and source location; symbols without a
// module inherit the graph's (extended) module.
func Decode(r io.Reader, g *Graph) ([]Symbol, error) {
	br := bufio.NewReader(r)
	defaultModule := g.Module
	if g.Extended != "" {
		defaultModule = g.Extended
	}

	var symbols []Symbol
	lineNo := 0
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if sym, ok, decErr := decodeLine(line); decErr != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, decErr)
			} else if ok {
				if sym.Module == "" {
					sym.Module = defaultModule
				}
				sym.IsFromMainGraph = g.IsMainGraph
				sym.Source = g.Path
				sym.Line = lineNo
				symbols = append(symbols, sym)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", lineNo+1, err)
		}
	}
	return symbols, nil
}

func decodeLine(line []byte) (Symbol, bool, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Symbol{}, false, nil
	}
	var sym Symbol
	if err := json.Unmarshal(line, &sym); err != nil {
		return Symbol{}, false, fmt.Errorf("unmarshaling declaration: %w", err)
	}
	if sym.Identifier.Precise == "" {
		return Symbol{}, false, fmt.Errorf("declaration has no precise identifier")
	}
	if len(sym.PathComponents) == 0 {
		return Symbol{}, false, fmt.Errorf("declaration %s has no path components", sym.Identifier.Precise)
	}
	return sym, true, nil
}
