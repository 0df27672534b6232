package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipkeep/internal/ipc"
	"go.klb.dev/clipkeep/internal/statussvc"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running monitor's counters",
		Long: `Asks a running "clipkeep watch" for its counters over the IPC Unix socket
($CLIPKEEP_SOCKET, else $XDG_RUNTIME_DIR/clipkeep.sock, else $TMPDIR/clipkeep.sock).

When no monitor is running, prints the configured output directory and
whether it exists.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(cmd, v) },
	}

	addDirFlag(cmd)
	cmd.Flags().Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, v *viper.Viper) error {
	out := cmd.OutOrStdout()
	if !ipc.IsRunning() {
		return printNotRunning(out, afero.NewOsFs(), settingsFrom(v).Dir)
	}

	conn, err := dialIPC()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()
	st, err := statussvc.Fetch(ctx, conn)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if v.GetBool("json") {
		enc, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
		if err != nil {
			return fmt.Errorf("encode status: %w", err)
		}
		fmt.Fprintln(out, string(enc))
		return nil
	}

	printStatus(out, st, time.Now())
	return nil
}

func printNotRunning(out io.Writer, fs afero.Fs, dir string) error {
	state := "missing"
	if ok, err := afero.DirExists(fs, dir); err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	} else if ok {
		state = "exists"
	}
	fmt.Fprintln(out, "clipkeep is not running")
	fmt.Fprintf(out, "Directory: %s (%s)\n", dir, state)
	return nil
}

func printStatus(out io.Writer, st *structpb.Struct, now time.Time) {
	f := st.GetFields()
	str := func(k string) string { return f[k].GetStringValue() }
	num := func(k string) int64 { return int64(f[k].GetNumberValue()) }

	started := str("started_at")
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		started = fmt.Sprintf("%s (%s)", started, fmtAge(t, now))
	}
	last := str("last_artifact")
	if last == "" {
		last = "-"
	}

	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s\n", str("backend"))
	fmt.Fprintf(w, "PID:\t%d\n", num("pid"))
	fmt.Fprintf(w, "Directory:\t%s\n", str("dir"))
	fmt.Fprintf(w, "Started:\t%s\n", started)
	fmt.Fprintf(w, "Events:\t%d\n", num("events"))
	fmt.Fprintf(w, "Saved:\t%d\n", num("saved"))
	fmt.Fprintf(w, "Skipped:\t%d\n", num("skipped"))
	fmt.Fprintf(w, "Failed:\t%d\n", num("failed"))
	fmt.Fprintf(w, "Last sequence:\t%d\n", num("last_sequence"))
	fmt.Fprintf(w, "Last artifact:\t%s\n", last)
	_ = w.Flush()
}
