// Copyright 2026 The Arkiv Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command arkivls lists the structural metadata of an archive without
// decompressing anything: format, entries, sizes, methods, timestamps.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/arkivdev/arkiv"
	"github.com/arkivdev/arkiv/core"
	"github.com/arkivdev/arkiv/zip"
)

// version is set via ldflags at build time: -ldflags "-X main.version=x.y.z"
var version = "dev"

// Config controls output. It is read from ~/.arkivls.yaml when present;
// flags override it.
type Config struct {
	Color bool `yaml:"color"`
	Long  bool `yaml:"long"`
}

func defaultConfig() *Config {
	return &Config{Color: true}
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".arkivls.yaml")
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// fileProvider adapts an open file to the window interface.
type fileProvider struct {
	f    *os.File
	size int64
}

func (p *fileProvider) Size() int64 { return p.size }

func (p *fileProvider) ReadWindow(off int64, n int) (core.Window, error) {
	if off < 0 || n < 0 || off > p.size {
		return core.Window{}, fmt.Errorf("%w: window [%d, +%d)", core.ErrOutOfRange, off, n)
	}
	if rest := p.size - off; int64(n) > rest {
		n = int(rest)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(p.f, off, int64(n)), buf); err != nil {
		return core.Window{}, err
	}
	return core.Window{Base: uint64(off), Data: buf}, nil
}

type lister struct {
	out  io.Writer
	long bool

	header func(a ...interface{}) string
	dim    func(a ...interface{}) string
	warn   func(a ...interface{}) string
}

func newLister(out io.Writer, cfg *Config) *lister {
	color.NoColor = color.NoColor || !cfg.Color
	return &lister{
		out:    out,
		long:   cfg.Long,
		header: color.New(color.FgCyan, color.Bold).SprintFunc(),
		dim:    color.New(color.FgHiBlack).SprintFunc(),
		warn:   color.New(color.FgYellow).SprintFunc(),
	}
}

// dosTime renders the raw MS-DOS date and time fields.
func dosTime(date, tm uint16) string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d",
		1980+int(date>>9), int(date>>5&0xF), int(date&0x1F),
		int(tm>>11), int(tm>>5&0x3F))
}

func (l *lister) list(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}

	a, err := arkiv.Open(&fileProvider{f: f, size: st.Size()})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(l.out, "%s: %s archive, %d bytes\n", l.header(path), a.Format(), a.Size())
	if a.Format() != arkiv.FormatZip {
		fmt.Fprintf(l.out, "  %s\n", l.dim("signature-only format, no entry listing"))
		return nil
	}

	for i := range a.Entries() {
		e := a.Index().At(i)
		name := string(e.Name)
		if e.Encrypted() {
			name += l.warn(" [encrypted]")
		}
		if l.long {
			fmt.Fprintf(l.out, "  %10d  %10d  %-7s  %s  %s\n",
				e.UncompressedSize, e.CompressedSize,
				zip.Method(e.Method), l.dim(dosTime(e.ModDate, e.ModTime)), name)
		} else {
			fmt.Fprintf(l.out, "  %10d  %s\n", e.UncompressedSize, name)
		}
	}

	fmt.Fprintf(l.out, "%s\n", l.dim(fmt.Sprintf("%d entries", a.Index().Len())))
	if c := a.Comment(); len(c) > 0 {
		fmt.Fprintf(l.out, "comment: %s\n", c)
	}
	if a.Zip64() {
		fmt.Fprintln(l.out, l.dim("zip64"))
	}
	return nil
}

func main() {
	cfgPath := flag.String("config", configPath(), "config file")
	long := flag.Bool("l", false, "long listing")
	noColor := flag.Bool("no-color", false, "disable colored output")
	showVersion := flag.Bool("version", false, "print version")
	flag.Parse()

	if *showVersion {
		fmt.Println("arkivls", version)
		return
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "arkivls: %v\n", err)
		os.Exit(1)
	}
	if *long {
		cfg.Long = true
	}
	if *noColor {
		cfg.Color = false
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: arkivls [-l] [-no-color] archive...")
		os.Exit(2)
	}

	l := newLister(os.Stdout, cfg)
	code := 0
	for _, path := range flag.Args() {
		if err := l.list(path); err != nil {
			fmt.Fprintf(os.Stderr, "arkivls: %v\n", err)
			code = 1
		}
	}
	os.Exit(code)
}
