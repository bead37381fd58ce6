package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"direct-messenger-backend/internal/client"
	"direct-messenger-backend/internal/models"

	"github.com/dustin/go-humanize"
)

func main() {
	serverFlag := flag.String("server", envOr("MESSENGER_URL", "http://localhost:8080"), "messenger server base URL")
	tokenFlag := flag.String("token", os.Getenv("MESSENGER_TOKEN"), "bearer token")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	timeoutFlag := flag.Duration("timeout", 10*time.Second, "request timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := client.New(*serverFlag, *timeoutFlag)
	c.SetToken(*tokenFlag)

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	if err := run(ctx, c, args, *jsonFlag); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: messengerctl [--server <url>] [--token <jwt>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  register <phone> <password>             Create an account")
	fmt.Fprintln(os.Stderr, "  login <phone> <password>                Log in and print the session")
	fmt.Fprintln(os.Stderr, "  user <phone>                            Look a user up by phone")
	fmt.Fprintln(os.Stderr, "  profile <user_id> <first> <last> <name> Update a profile")
	fmt.Fprintln(os.Stderr, "  chats <user_id>                         List a user's chats")
	fmt.Fprintln(os.Stderr, "  chat <user_id> <other_user_id>          Open (or find) a chat")
	fmt.Fprintln(os.Stderr, "  messages <chat_id>                      List a chat's messages")
	fmt.Fprintln(os.Stderr, "  send <chat_id> <sender_id> <text...>    Send a message")
	fmt.Fprintln(os.Stderr, "  online <user_id> <true|false>           Set presence")
	fmt.Fprintln(os.Stderr, "  admin users <admin_id>                  List all users")
	fmt.Fprintln(os.Stderr, "  admin block <admin_id> <user_id> <bool> Block or unblock a user")
}

func run(ctx context.Context, c *client.Client, args []string, jsonOut bool) error {
	need := func(n int) error {
		if len(args) < n+1 {
			return fmt.Errorf("%s: expected %d arguments, see messengerctl -h", args[0], n)
		}
		return nil
	}

	switch args[0] {
	case "register", "login":
		if err := need(2); err != nil {
			return err
		}
		var (
			session *client.Session
			err     error
		)
		if args[0] == "register" {
			session, err = c.Register(ctx, args[1], args[2])
		} else {
			session, err = c.Login(ctx, args[1], args[2])
		}
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(session)
		}
		printUser(session.User)
		if session.Token != "" {
			fmt.Printf("Token:     %s\n", session.Token)
		}
	case "user":
		if err := need(1); err != nil {
			return err
		}
		user, err := c.GetUserByPhone(ctx, args[1])
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(user)
		}
		printUser(user)
	case "profile":
		if err := need(4); err != nil {
			return err
		}
		user, err := c.UpdateUser(ctx, args[1], args[2], args[3], args[4])
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(user)
		}
		printUser(user)
	case "chats":
		if err := need(1); err != nil {
			return err
		}
		chats, err := c.GetChats(ctx, args[1])
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(chats)
		}
		if len(chats) == 0 {
			fmt.Println("No chats yet.")
			return nil
		}
		for _, ch := range chats {
			fmt.Printf("%-14s %-20s @%-16s %s\n", ch.ID, displayName(ch.FirstName, ch.LastName), ch.Username,
				presence(ch.IsOnline, ch.LastSeen, time.Now()))
		}
	case "chat":
		if err := need(2); err != nil {
			return err
		}
		chatID, status, err := c.CreateChat(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(map[string]any{"chat_id": chatID, "status": status})
		}
		fmt.Printf("Chat %s (%s)\n", chatID, status)
	case "messages":
		if err := need(1); err != nil {
			return err
		}
		msgs, err := c.GetMessages(ctx, args[1])
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(msgs)
		}
		for _, m := range msgs {
			fmt.Printf("[%s] %s: %s\n", humanize.Time(m.Timestamp), m.SenderID, m.Text)
		}
	case "send":
		if err := need(3); err != nil {
			return err
		}
		msg, err := c.SendMessage(ctx, args[1], args[2], strings.Join(args[3:], " "))
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(msg)
		}
		fmt.Printf("Sent %s at %s\n", msg.ID, msg.Timestamp.Format(time.RFC3339Nano))
	case "online":
		if err := need(2); err != nil {
			return err
		}
		online, err := strconv.ParseBool(args[2])
		if err != nil {
			return fmt.Errorf("invalid online value %q: %w", args[2], err)
		}
		if err := c.UpdateOnlineStatus(ctx, args[1], online); err != nil {
			return err
		}
		fmt.Println("OK")
	case "admin":
		return runAdmin(ctx, c, args[1:], jsonOut)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return nil
}

func runAdmin(ctx context.Context, c *client.Client, args []string, jsonOut bool) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: messengerctl admin <users|block> ...")
	}

	switch args[0] {
	case "users":
		if len(args) < 2 {
			return fmt.Errorf("usage: messengerctl admin users <admin_id>")
		}
		users, err := c.AdminGetUsers(ctx, args[1])
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(users)
		}
		for _, u := range users {
			flags := ""
			if u.IsDeveloper {
				flags += " developer"
			}
			if u.IsBlocked {
				flags += " blocked"
			}
			fmt.Printf("%-10s %-14s @%-16s joined %s%s\n", u.ID, u.Phone, u.Username, humanize.Time(u.CreatedAt), flags)
		}
	case "block":
		if len(args) < 4 {
			return fmt.Errorf("usage: messengerctl admin block <admin_id> <user_id> <true|false>")
		}
		blocked, err := strconv.ParseBool(args[3])
		if err != nil {
			return fmt.Errorf("invalid blocked value %q: %w", args[3], err)
		}
		user, err := c.AdminBlockUser(ctx, args[1], args[2], blocked)
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(user)
		}
		printUser(user)
	default:
		return fmt.Errorf("unknown admin subcommand: %s", args[0])
	}
	return nil
}

func printUser(u *models.User) {
	fmt.Printf("ID:        %s\n", u.ID)
	fmt.Printf("Phone:     %s\n", u.Phone)
	fmt.Printf("Name:      %s\n", displayName(u.FirstName, u.LastName))
	fmt.Printf("Username:  @%s\n", u.Username)
	fmt.Printf("Status:    %s\n", presence(u.IsOnline, u.LastSeen, time.Now()))
	if u.IsBlocked {
		fmt.Println("Blocked:   yes")
	}
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// presence renders the online flag and last-seen time relative to now
func presence(online bool, lastSeen *time.Time, now time.Time) string {
	if online {
		return "online"
	}
	if lastSeen == nil {
		return "offline"
	}
	return "last seen " + humanize.RelTime(*lastSeen, now, "ago", "from now")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode error: %w", err)
	}
	return nil
}
