package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/antonholmquist/jason"
	"github.com/pkg/errors"

	"github.com/ndlib/objectstore"
	"github.com/ndlib/objectstore/codec"
	"github.com/ndlib/objectstore/config"
	"github.com/ndlib/objectstore/store"
)

var (
	configFile  = flag.String("config", "", "configuration file (.toml, .yaml)")
	backend     = flag.String("backend", "", "store backend, overrides the configuration")
	storePath   = flag.String("path", "", "store path, overrides the configuration")
	prefix      = flag.String("prefix", "", "identifier prefix, overrides the configuration")
	noOverwrite = flag.Bool("no-overwrite", false, "do not replace existing entries on put")
	usage       = `
objstore [flags] <command> <command arguments>

Possible commands:
    has <id list>

    get <id>

    put <id> <json text, or - to read stdin>

    rm <id list>

    list [prefix]

    inspect <id list>
`
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Defaults()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = *loaded
	}
	var override config.Config
	override.Store.Backend = *backend
	override.Store.Path = *storePath
	override.Store.Prefix = *prefix
	if *noOverwrite {
		no := false
		override.Engine.Overwrite = &no
	}
	cfg.Merge(&override)
	if err := cfg.SetupSentry(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	s, err := cfg.OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close(s)
	r := cfg.NewEngine(s, cfg.Logger())

	ok := true
	switch args[0] {
	case "has":
		ok = dohas(r, args[1:])
	case "get":
		ok = needArgs(args, 2) && doget(s, args[1])
	case "put":
		ok = needArgs(args, 3) && doput(r, args[1], args[2])
	case "rm":
		ok = dorm(r, args[1:])
	case "list":
		var p string
		if len(args) > 1 {
			p = args[1]
		}
		ok = dolist(r, p)
	case "inspect":
		ok = doinspect(s, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		ok = false
	}
	if !ok {
		store.Close(s)
		os.Exit(1)
	}
}

func needArgs(args []string, n int) bool {
	if len(args) < n {
		fmt.Fprintf(os.Stderr, "%s: not enough arguments\n", args[0])
		return false
	}
	return true
}

func dohas(r *objectstore.Raw, ids []string) bool {
	result := true
	for _, id := range ids {
		found, err := r.Contains(id)
		if err != nil {
			fmt.Printf("%s: Error %s\n", id, err)
			result = false
			continue
		}
		fmt.Printf("%s: %v\n", id, found)
	}
	return result
}

func doget(s store.Store, id string) bool {
	data, err := s.Get(id)
	if err == store.ErrNotExist {
		fmt.Fprintf(os.Stderr, "%s: no entry\n", id)
		return false
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "%s: Error %s\n", id, err)
		return false
	}
	os.Stdout.Write(data)
	fmt.Println()
	return true
}

func doput(r *objectstore.Raw, id, text string) bool {
	data := []byte(text)
	if text == "-" {
		var err error
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
	}
	if _, err := jason.NewValueFromBytes(data); err != nil {
		fmt.Fprintf(os.Stderr, "%s: not valid JSON: %s\n", id, err)
		return false
	}
	stored, err := r.Store(id, json.RawMessage(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: Error %s\n", id, err)
		return false
	}
	if !stored {
		fmt.Fprintf(os.Stderr, "%s: exists, not replaced\n", id)
		return false
	}
	return true
}

func dorm(r *objectstore.Raw, ids []string) bool {
	result := true
	for _, id := range ids {
		removed, err := r.Remove(id)
		if err != nil {
			fmt.Printf("%s: Error %s\n", id, err)
			result = false
			continue
		}
		fmt.Printf("%s: %v\n", id, removed)
	}
	return result
}

func dolist(r *objectstore.Raw, prefix string) bool {
	keys, err := r.Keys(prefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return true
}

func doinspect(s store.Store, ids []string) bool {
	result := true
	for _, id := range ids {
		data, err := s.Get(id)
		if err != nil {
			fmt.Printf("%s: Error %s\n", id, err)
			result = false
			continue
		}
		v, err := jason.NewValueFromBytes(data)
		if err != nil {
			fmt.Printf("%s: not valid JSON: %s\n", id, err)
			result = false
			continue
		}
		fmt.Println("---")
		w := tabwriter.NewWriter(os.Stdout, 5, 1, 3, ' ', 0)
		fmt.Fprintf(w, "ID:\t%s\n", id)
		fmt.Fprintf(w, "Size:\t%d\n", len(data))
		fmt.Fprintf(w, "Shape:\t%s\n", describe(v, data))
		w.Flush()
		if entries, err := mapEntries(data); err == nil && len(entries) > 0 {
			w = tabwriter.NewWriter(os.Stdout, 5, 1, 3, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "  %s\t%s\n", e[0], e[1])
			}
			w.Flush()
		}
	}
	return result
}

// describe names the shape of a stored value. data is the text v was parsed
// from.
func describe(v *jason.Value, data []byte) string {
	if a, err := v.Array(); err == nil {
		if len(a) == 0 {
			return "list, 0 elements"
		}
		entries, err := mapEntries(data)
		if err == nil {
			return fmt.Sprintf("map, %d entries", len(entries))
		}
		if looksLikeMap(a) {
			return fmt.Sprintf("list, %d elements, not a valid map: %s", len(a), err)
		}
		return fmt.Sprintf("list, %d elements", len(a))
	}
	if o, err := v.Object(); err == nil {
		return fmt.Sprintf("object, %d members", len(o.Map()))
	}
	if _, err := v.String(); err == nil {
		return "string"
	}
	if _, err := v.Number(); err == nil {
		return "number"
	}
	if _, err := v.Boolean(); err == nil {
		return "boolean"
	}
	return "null"
}

// looksLikeMap reports whether every element is an object with exactly the
// members "key" and "value", in any order.
func looksLikeMap(a []*jason.Value) bool {
	for _, elem := range a {
		o, err := elem.Object()
		if err != nil {
			return false
		}
		m := o.Map()
		_, hasKey := m["key"]
		_, hasValue := m["value"]
		if len(m) != 2 || !hasKey || !hasValue {
			return false
		}
	}
	return true
}

// mapEntries reads data the way the engine reads a stored map, with "key"
// before "value" in every entry, and returns the text of each key and value.
func mapEntries(data []byte) ([][2]string, error) {
	rd := codec.JSON{}.NewReader(data)
	if err := rd.BeginArray(); err != nil {
		return nil, err
	}
	var result [][2]string
	for i := 0; rd.HasNext(); i++ {
		if err := rd.BeginObject(); err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		var entry [2]string
		for j, name := range []string{"key", "value"} {
			got, err := rd.NextName()
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			if got != name {
				return nil, errors.Errorf("entry %d: expected member %q, found %q", i, name, got)
			}
			var raw json.RawMessage
			if err := rd.Decode(&raw); err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			entry[j] = string(raw)
			if entry[j] == "" {
				entry[j] = "null"
			}
		}
		if err := rd.EndObject(); err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		result = append(result, entry)
	}
	if err := rd.EndArray(); err != nil {
		return nil, err
	}
	return result, rd.End()
}
