package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/services"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/ui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive search: type to search, then page through and add results",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().String("category", "", "Initial category filter")
	browseCmd.Flags().Int64("list", 0, "Needs list to add results to")
	browseCmd.Flags().Int("limit", models.DefaultPageSize, "Products per page")
	rootCmd.AddCommand(browseCmd)
}

const browseHelp = `Type search terms and press enter. Commands:
  :more               load the next page
  :retry              retry the last failed search
  :cat <category>     filter by category (empty for all)
  :price <min> <max>  filter by price, "-" leaves a bound open
  :add <n> [listId]   add result n to a needs list
  :help               show this help
  :quit               exit`

func runBrowse(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	category, _ := cmd.Flags().GetString("category")
	listID, _ := cmd.Flags().GetInt64("list")
	limit, _ := cmd.Flags().GetInt("limit")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	b := newBrowser(cmd.InOrStdin(), cmd.OutOrStdout(), ui.NewSpinnerTo(cmd.ErrOrStderr()))
	b.session = a.NewSession(ctx, services.SessionOptions{
		ListID:   models.ListID(listID),
		Category: category,
		Limit:    limit,
		OnChange: b.render,
	})
	defer b.session.Close()

	return b.run(ctx)
}

type commandKind int

const (
	cmdType commandKind = iota
	cmdMore
	cmdRetry
	cmdCategory
	cmdPrice
	cmdAdd
	cmdHelp
	cmdQuit
)

type command struct {
	kind     commandKind
	text     string
	minPrice *float64
	maxPrice *float64
	index    int
	listID   models.ListID
}

// parseCommand reads one input line. Anything not starting with ':' is
// new search box contents.
func parseCommand(line string) (command, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		return command{kind: cmdType, text: trimmed}, nil
	}

	fields := strings.Fields(trimmed)
	name, args := fields[0], fields[1:]
	switch name {
	case ":more", ":m":
		return command{kind: cmdMore}, nil
	case ":retry", ":r":
		return command{kind: cmdRetry}, nil
	case ":help", ":h", ":?":
		return command{kind: cmdHelp}, nil
	case ":quit", ":q", ":exit":
		return command{kind: cmdQuit}, nil
	case ":cat", ":category":
		return command{kind: cmdCategory, text: strings.Join(args, " ")}, nil
	case ":price":
		if len(args) != 2 {
			return command{}, errors.New("usage: :price <min> <max>")
		}
		minPrice, err := parseBound(args[0])
		if err != nil {
			return command{}, err
		}
		maxPrice, err := parseBound(args[1])
		if err != nil {
			return command{}, err
		}
		if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
			return command{}, fmt.Errorf("min price %.2f is above max price %.2f", *minPrice, *maxPrice)
		}
		return command{kind: cmdPrice, minPrice: minPrice, maxPrice: maxPrice}, nil
	case ":add", ":a":
		if len(args) < 1 || len(args) > 2 {
			return command{}, errors.New("usage: :add <n> [listId]")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return command{}, fmt.Errorf("invalid result number %q", args[0])
		}
		c := command{kind: cmdAdd, index: n}
		if len(args) == 2 {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || id < 1 {
				return command{}, fmt.Errorf("invalid list id %q", args[1])
			}
			c.listID = models.ListID(id)
		}
		return c, nil
	default:
		return command{}, fmt.Errorf("unknown command %s (type :help)", name)
	}
}

func parseBound(s string) (*float64, error) {
	if s == "-" || s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid price %q", s)
	}
	return &v, nil
}

// browser drives a Session from line input and renders its views.
type browser struct {
	session *services.Session
	in      *bufio.Scanner
	out     io.Writer
	spin    *ui.Spinner

	mu       sync.Mutex
	rendered bool
	query    models.SearchQuery
	source   services.Source
	printed  int
	lastErr  error
}

func newBrowser(in io.Reader, out io.Writer, spin *ui.Spinner) *browser {
	return &browser{
		in:   bufio.NewScanner(in),
		out:  out,
		spin: spin,
	}
}

func (b *browser) run(ctx context.Context) error {
	b.printf("%s\n\n", browseHelp)
	b.session.Submit("")

	for b.in.Scan() {
		c, err := parseCommand(b.in.Text())
		if err != nil {
			b.printf("! %v\n", err)
			continue
		}

		switch c.kind {
		case cmdType:
			b.session.Type(c.text)
		case cmdMore:
			b.session.Flush()
			if err := b.session.ShowMore(); err != nil {
				b.printf("! %s\n", moreMessage(err))
			}
		case cmdRetry:
			if err := b.session.Retry(); err != nil {
				b.printf("! %v\n", err)
			}
		case cmdCategory:
			b.session.Flush()
			b.session.SetCategory(c.text)
		case cmdPrice:
			b.session.Flush()
			b.session.SetPriceRange(c.minPrice, c.maxPrice)
		case cmdAdd:
			b.session.Flush()
			b.add(ctx, c)
		case cmdHelp:
			b.printf("%s\n", browseHelp)
		case cmdQuit:
			return nil
		}
	}
	return b.in.Err()
}

func moreMessage(err error) string {
	if errors.Is(err, services.ErrNoMoreResults) {
		return "No more results."
	}
	return err.Error()
}

func (b *browser) add(ctx context.Context, c command) {
	v := b.session.View()
	if c.index > len(v.Results) {
		b.printf("! No result #%d.\n", c.index)
		return
	}
	p := v.Results[c.index-1]

	out, err := b.session.AddToList(ctx, p, c.listID)
	if err != nil {
		b.printf("! %s\n", services.UserMessage(err))
		return
	}

	if out.Status == services.AddStatusSelectionNeeded {
		choice, ok := b.choose(out.Message, out.Choices)
		if !ok {
			b.printf("Not added.\n")
			return
		}
		out, err = b.session.AddToList(ctx, p, choice.ID)
		if err != nil {
			b.printf("! %s\n", services.UserMessage(err))
			return
		}
	}

	b.printf("%s View it at %s\n", out.Message, out.ListURL)
}

// choose prompts for one of lists and reads the answer from input.
func (b *browser) choose(prompt string, lists []models.TargetList) (models.TargetList, bool) {
	b.mu.Lock()
	fmt.Fprintln(b.out, prompt)
	printLists(b.out, lists)
	fmt.Fprintf(b.out, "Choose a list [1-%d]: ", len(lists))
	b.mu.Unlock()

	if !b.in.Scan() {
		return models.TargetList{}, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(b.in.Text()))
	if err != nil || n < 1 || n > len(lists) {
		return models.TargetList{}, false
	}
	return lists[n-1], true
}

// render is the session's change callback. It prints a result set once
// and then only the rows appended by later pages.
func (b *browser) render(v services.View) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if v.Loading || v.State == services.StateLoadingMore {
		msg := fmt.Sprintf("Searching '%s'...", v.Query.Term)
		if v.State == services.StateLoadingMore {
			msg = "Loading more..."
		}
		b.spin.Start(msg)
		// Only placeholder rows belong to the new query; anything else on
		// screen is the previous set.
		if !v.Loading || v.Source != services.SourcePlaceholder {
			return
		}
	} else {
		b.spin.Stop()
	}

	if v.Err != nil {
		if v.Err != b.lastErr {
			b.lastErr = v.Err
			fmt.Fprintf(b.out, "! %s Type :retry to try again.\n", v.Message)
		}
		return
	}
	b.lastErr = nil

	reset := !b.rendered ||
		!v.Query.SameSearch(b.query) ||
		len(v.Results) < b.printed ||
		(v.Page == 1 && v.Source != b.source)
	if reset {
		b.rendered = true
		b.query = v.Query
		b.source = v.Source
		b.printed = 0
		fmt.Fprintln(b.out, header(v))
	}
	if len(v.Results) == b.printed {
		return
	}

	printProducts(b.out, v.Results[b.printed:], b.printed)
	b.printed = len(v.Results)
	b.source = v.Source

	fmt.Fprintln(b.out)
	line := footer(v.Source, len(v.Results), v.Total, v.HasMore)
	if v.HasMore {
		line += " Type :more to see them."
	}
	fmt.Fprintln(b.out, line)
}

func header(v services.View) string {
	switch {
	case v.Source == services.SourcePopular:
		return "Popular essentials:"
	case v.Source == services.SourcePlaceholder:
		return fmt.Sprintf("Similar results while searching for '%s':", v.Query.Term)
	case v.Source == services.SourceNone:
		return "Type at least 3 characters to search."
	case len(v.Results) == 0:
		return fmt.Sprintf("No products found for '%s'.", v.Query.Term)
	default:
		return fmt.Sprintf("Results for '%s':", v.Query.Term)
	}
}

func (b *browser) printf(format string, a ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, a...)
}
