package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"LinkCart/internal/links"
	"LinkCart/internal/popup"
	"LinkCart/internal/substitute"
)

func newExpandCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "expand [text...]",
		Short: "Replace $key tokens with the saved link",
		Long: `Replace $key tokens with the link saved under that key. With --watch,
lines are read from stdin and each is expanded once input pauses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if watch {
				return watchExpand(cmd.Context(), store, cmd.InOrStdin(), out)
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = strings.TrimRight(string(b), "\n")
			}
			_, err = fmt.Fprintln(out, popup.ExpandText(cmd.Context(), store, text))
			return err
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "expand stdin lines after a typing pause")
	return cmd
}

// watchExpand prints the expansion of the latest line once no new line has
// arrived for substitute.DefaultDelay. The last line is flushed at EOF.
func watchExpand(ctx context.Context, store *links.Store, in io.Reader, out io.Writer) error {
	d := substitute.NewDebouncer(substitute.DefaultDelay)

	var (
		mu      sync.Mutex
		pending string
		dirty   bool
	)
	flush := func() {
		mu.Lock()
		defer mu.Unlock()
		if !dirty {
			return
		}
		dirty = false
		fmt.Fprintln(out, popup.ExpandText(ctx, store, pending))
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		mu.Lock()
		pending, dirty = sc.Text(), true
		mu.Unlock()
		d.Submit(flush)
	}
	d.Stop()
	flush()
	return sc.Err()
}
