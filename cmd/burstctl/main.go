// burstctl talks to a running server over burst.v1.Control.
//
// Usage:
//
//	burstctl [--addr ADDR] pause|resume|toggle|step|burst|status|get
//	burstctl [--addr ADDR] set key=value [key=value...]
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/burst-helper/internal/rpc"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:7411", "server address")
	timeout := pflag.Duration("timeout", 10*time.Second, "per-call timeout")
	pflag.Usage = printUsage
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	if err := run(*addr, *timeout, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `burstctl - control a running burst helper

USAGE
    burstctl [--addr ADDR] <command> [args]

COMMANDS
    pause | resume | toggle   Change the pause state
    step                      Advance one tick
    burst                     Sell the selected buildings and buy them back
    status                    Show pause state, tick counters and buildings
    get                       Show settings
    set key=value...          Change settings, e.g. sellCount=5 selected.Farm=true
`)
}

func run(addr string, timeout time.Duration, cmd string, args []string) error {
	client, err := rpc.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var out *structpb.Struct
	switch cmd {
	case "pause":
		out, err = client.Pause(ctx)
	case "resume":
		out, err = client.Resume(ctx)
	case "toggle":
		out, err = client.Toggle(ctx)
	case "step":
		out, err = client.Step(ctx)
	case "burst":
		out, err = client.Burst(ctx)
	case "status":
		out, err = client.Status(ctx)
	case "get":
		out, err = client.GetSettings(ctx)
	case "set":
		fields, perr := parseAssignments(args)
		if perr != nil {
			return perr
		}
		out, err = client.UpdateSettings(ctx, fields)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// parseAssignments turns key=value pairs into an update patch. Values
// that look like booleans or numbers are sent as such; "selected.<unit>"
// keys are grouped under "selected".
func parseAssignments(args []string) (map[string]interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("set: expected key=value")
	}
	fields := make(map[string]interface{})
	selected := make(map[string]interface{})
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("set: %q is not key=value", a)
		}
		if unit, ok := strings.CutPrefix(key, "selected."); ok {
			selected[unit] = literal(value)
			continue
		}
		fields[key] = literal(value)
	}
	if len(selected) > 0 {
		fields["selected"] = selected
	}
	return fields, nil
}

func literal(s string) interface{} {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
