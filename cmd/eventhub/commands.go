package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/robertarktes/eventhub/internal/client"
	"github.com/robertarktes/eventhub/internal/domain"
	"github.com/spf13/pflag"
)

func newFlags(name string, e *env) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.out)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func oneID(fs *pflag.FlagSet, what string) (uuid.UUID, error) {
	if fs.NArg() != 1 {
		return uuid.Nil, fmt.Errorf("expected exactly one %s id", what)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s id %q", what, fs.Arg(0))
	}
	return id, nil
}

func runLogin(ctx context.Context, e *env, args []string) error {
	var email, password string
	fs := newFlags("login", e)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&password, "password", "", "account password (env EVENTHUB_PASSWORD)")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if password == "" {
		password = os.Getenv("EVENTHUB_PASSWORD")
	}
	if email == "" || password == "" {
		return fmt.Errorf("--email and --password are required")
	}
	res, err := e.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := e.tokens.Save(res.Token); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Logged in as %s (%s)\n", res.User.Name, res.User.Role)
	return nil
}

func runLogout(_ context.Context, e *env, _ []string) error {
	if err := e.tokens.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Logged out")
	return nil
}

// runTickets fetches every ticket once and applies the tab and search
// filters locally, the same way the web client does.
func runTickets(ctx context.Context, e *env, args []string) error {
	var f domain.TicketFilter
	fs := newFlags("tickets", e)
	fs.StringVar(&f.Status, "status", "all", "tab: all, upcoming, past, canceled or used")
	fs.StringVar(&f.Search, "search", "", "match event title")
	fs.StringVar(&f.Location, "location", "", "match location")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}

	tickets, err := e.api.GetMyTickets(ctx)
	if err != nil {
		return err
	}
	counts := domain.CountTicketsByTab(tickets)
	shown := domain.FilterTickets(tickets, f)

	fmt.Fprintf(e.out, "All %d | Upcoming %d | Past %d | Canceled %d\n\n", counts.All, counts.Upcoming, counts.Past, counts.Canceled)
	if len(shown) == 0 {
		fmt.Fprintln(e.out, "No tickets found.")
		return nil
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENT\tDATE\tLOCATION\tTYPE\tPRICE\tSTATUS")
	for _, t := range shown {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t$%.2f\t%s\n",
			t.ID, t.EventTitle, t.EventDate.Format("2006-01-02"), t.EventTime, t.Location, t.TicketType, t.Price, t.Status)
	}
	return tw.Flush()
}

func runStats(ctx context.Context, e *env, args []string) error {
	fs := newFlags("stats", e)
	if ok, err := parse(fs, args); !ok {
		return err
	}
	s, err := e.api.GetUserStats(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Upcoming events\t%d\n", s.UpcomingEvents)
	fmt.Fprintf(tw, "Past events\t%d\n", s.PastEvents)
	fmt.Fprintf(tw, "Canceled tickets\t%d\n", s.CanceledTickets)
	fmt.Fprintf(tw, "Total tickets\t%d\n", s.TotalTickets)
	fmt.Fprintf(tw, "Total spent\t$%.2f\n", s.TotalSpent)
	return tw.Flush()
}

func runCancel(ctx context.Context, e *env, args []string) error {
	fs := newFlags("cancel", e)
	if ok, err := parse(fs, args); !ok {
		return err
	}
	id, err := oneID(fs, "ticket")
	if err != nil {
		return err
	}
	t, err := e.api.CancelTicket(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Canceled %s ticket for %s\n", t.TicketType, t.EventTitle)
	return nil
}

func runAvatar(ctx context.Context, e *env, args []string) error {
	fs := newFlags("avatar", e)
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected the path of an image file")
	}
	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()
	res, err := e.api.UploadAvatar(ctx, f.Name(), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Avatar updated: %s\n", res.Avatar)
	return nil
}

func runNotifications(ctx context.Context, e *env, args []string) error {
	var q client.NotificationQuery
	var unread bool
	fs := newFlags("notifications", e)
	fs.BoolVar(&unread, "unread", false, "only unread notifications")
	fs.StringVar(&q.Read, "read", "", "all, read or unread")
	fs.StringSliceVar(&q.Types, "type", nil, "notification types to include")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if unread {
		q.Read = string(domain.UnreadOnly)
	}
	ns, err := e.api.Notifications(ctx, q)
	if err != nil {
		return err
	}
	if len(ns) == 0 {
		fmt.Fprintln(e.out, "No notifications.")
		return nil
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	for _, n := range ns {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, n.ID, n.Timestamp.Local().Format("Jan 2 15:04"), n.Type, n.Title)
	}
	fmt.Fprintf(tw, "\n%d unread\n", domain.UnreadCount(ns))
	return tw.Flush()
}

func runRead(ctx context.Context, e *env, args []string) error {
	var all bool
	fs := newFlags("read", e)
	fs.BoolVar(&all, "all", false, "mark every notification as read")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if all {
		n, err := e.api.MarkAllNotificationsRead(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "Marked %d notification%s as read\n", n, plural(n))
		return nil
	}
	id, err := oneID(fs, "notification")
	if err != nil {
		return err
	}
	n, err := e.api.MarkNotificationRead(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Marked %q as read\n", n.Title)
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
