// Package cli is a small flag-and-help framework for the compiler
// driver: long and short flags, repeated prefix flags for -W/-F
// toggles, and a help page wrapped to the terminal width.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

type listValue struct{ p *[]string }

func (v *listValue) Set(s string) error { *v.p = append(*v.p, s); return nil }
func (v *listValue) String() string     { return strings.Join(*v.p, ", ") }

type Flag struct {
	Name      string
	Shorthand string
	Usage     string
	Value     Value
	Metavar   string
}

type FlagSet struct {
	name          string
	flags         map[string]*Flag
	shorthands    map[string]*Flag
	specialPrefix map[string]*Flag
	order         []string
	args          []string
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:          name,
		flags:         make(map[string]*Flag),
		shorthands:    make(map[string]*Flag),
		specialPrefix: make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, metavar string) {
	*p = value
	f.Var(&stringValue{p}, name, shorthand, usage, metavar)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, shorthand, usage, "")
}

// Special collects every flag beginning with prefix, value included, so
// "-Wno-foo" lands in *p as "no-foo".
func (f *FlagSet) Special(p *[]string, prefix, usage, metavar string) {
	*p = []string{}
	f.Var(&listValue{p}, prefix, "", usage, metavar)
	f.specialPrefix[prefix] = f.flags[prefix]
}

func (f *FlagSet) Var(value Value, name, shorthand, usage, metavar string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, Metavar: metavar}
	f.flags[name] = flag
	f.order = append(f.order, name)
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}
		name := strings.TrimLeft(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			flag, ok := f.flags[name[:eq]]
			if !ok {
				return fmt.Errorf("unknown flag: %s", arg)
			}
			if err := flag.Value.Set(name[eq+1:]); err != nil {
				return err
			}
			continue
		}
		if flag, ok := f.flags[name]; ok {
			if err := f.setOrConsume(flag, arguments, &i); err != nil {
				return err
			}
			continue
		}
		if flag, ok := f.matchSpecial(name); ok {
			prefix := flag.Name
			if err := flag.Value.Set(name[len(prefix):]); err != nil {
				return err
			}
			continue
		}
		if flag, ok := f.shorthands[name[:1]]; ok && !strings.HasPrefix(arg, "--") {
			if rest := name[1:]; rest != "" {
				if err := flag.Value.Set(rest); err != nil {
					return err
				}
				continue
			}
			if err := f.setOrConsume(flag, arguments, &i); err != nil {
				return err
			}
			continue
		}
		return fmt.Errorf("unknown flag: %s", arg)
	}
	return nil
}

func (f *FlagSet) matchSpecial(name string) (*Flag, bool) {
	for prefix, flag := range f.specialPrefix {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return flag, true
		}
	}
	return nil, false
}

func (f *FlagSet) setOrConsume(flag *Flag, arguments []string, i *int) error {
	if _, isBool := flag.Value.(*boolValue); isBool {
		return flag.Value.Set("")
	}
	if *i+1 >= len(arguments) {
		return fmt.Errorf("flag needs an argument: -%s", flag.Name)
	}
	*i++
	return flag.Value.Set(arguments[*i])
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	FlagSet     *FlagSet
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet(name)}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintf(os.Stderr, "Usage: %s %s\n", a.Name, a.Synopsis)
		return err
	}
	if help {
		a.printHelp(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) printHelp(w *os.File) {
	width := terminalWidth(w)

	fmt.Fprintf(w, "Usage: %s %s\n", a.Name, a.Synopsis)
	if a.Description != "" {
		fmt.Fprintf(w, "\n%s\n", wrap(a.Description, width, ""))
	}
	fmt.Fprintln(w, "\nOptions:")

	names := append([]string(nil), a.FlagSet.order...)
	sort.Strings(names)

	left := make([]string, len(names))
	maxLeft := 0
	for i, name := range names {
		flag := a.FlagSet.flags[name]
		s := "  "
		if flag.Shorthand != "" {
			s += "-" + flag.Shorthand + ", "
		}
		s += "-" + flag.Name
		if flag.Metavar != "" {
			s += " <" + flag.Metavar + ">"
		}
		left[i] = s
		if len(s) > maxLeft {
			maxLeft = len(s)
		}
	}

	for i, name := range names {
		flag := a.FlagSet.flags[name]
		pad := strings.Repeat(" ", maxLeft-len(left[i])+2)
		usage := wrap(flag.Usage, width-maxLeft-2, strings.Repeat(" ", maxLeft+2))
		fmt.Fprintf(w, "%s%s%s\n", left[i], pad, usage)
	}
}

func terminalWidth(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
		return w
	}
	return 80
}

// wrap breaks text at word boundaries; continuation lines get indent.
func wrap(text string, width int, indent string) string {
	if width < 20 {
		width = 20
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var sb strings.Builder
	line := 0
	for i, word := range words {
		if i > 0 {
			if line+1+len(word) > width {
				sb.WriteString("\n" + indent)
				line = 0
			} else {
				sb.WriteString(" ")
				line++
			}
		}
		sb.WriteString(word)
		line += len(word)
	}
	return sb.String()
}
