// Package metro статический справочник линий и станций метро для доставки "По метро".
package metro

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed lines.yaml
var defaultLines []byte

// Line линия и ее станции в порядке показа.
type Line struct {
	Name     string   `yaml:"name"`
	Stations []string `yaml:"stations"`
}

// Lookup неизменяемый после создания справочник. Порядок линий и станций = порядок объявления.
type Lookup struct {
	lines    []string
	stations map[string][]string
}

// New строит справочник из списка линий. Дубли линий - ошибка.
func New(lines []Line) (*Lookup, error) {
	l := &Lookup{
		lines:    make([]string, 0, len(lines)),
		stations: make(map[string][]string, len(lines)),
	}
	for _, line := range lines {
		if line.Name == "" {
			return nil, fmt.Errorf("metro: line without name")
		}
		if _, dup := l.stations[line.Name]; dup {
			return nil, fmt.Errorf("metro: duplicate line %q", line.Name)
		}
		l.lines = append(l.lines, line.Name)
		l.stations[line.Name] = slices.Clone(line.Stations)
	}
	return l, nil
}

// Load читает YAML со списком линий. Пустой path - встроенный справочник.
func Load(path string) (*Lookup, error) {
	data := defaultLines
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read metro lines: %w", err)
		}
		data = b
	}
	var doc struct {
		Lines []Line `yaml:"lines"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metro lines: %w", err)
	}
	return New(doc.Lines)
}

// Default встроенный справочник.
func Default() *Lookup {
	l, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded metro lines: %v", err))
	}
	return l
}

// Lines названия линий для селектора. Не сортируем: порядок как в справочнике.
func (l *Lookup) Lines() []string {
	return slices.Clone(l.lines)
}

// StationsFor станции линии. Для пустой или неизвестной линии пустой срез, не ошибка:
// поле линии заполняет пользователь, и оно бывает пустым.
func (l *Lookup) StationsFor(line string) []string {
	st, ok := l.stations[line]
	if !ok {
		return []string{}
	}
	return slices.Clone(st)
}

// HasStation есть ли станция на линии.
func (l *Lookup) HasStation(line, station string) bool {
	return slices.Contains(l.stations[line], station)
}
