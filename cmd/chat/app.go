package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/thereayou/roomchat/pkg/chat"
)

const helpText = `Commands:
  /rooms           list rooms
  /join [id|name]  switch room (no argument reconnects the current one)
  /create <name>   create a room and switch to it
  /logout          sign out
  /help            show this help
  /quit            exit
Anything else is sent to the current room.`

var errQuit = errors.New("quit")

type app struct {
	client *chat.Client
	lines  <-chan string
	log    *zap.Logger

	outMu sync.Mutex
	out   io.Writer
	view  *messageView
}

func newApp(client *chat.Client, in io.Reader, out io.Writer, log *zap.Logger) *app {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	a := &app{client: client, lines: lines, log: log, out: out, view: newMessageView()}
	client.Sync.OnChange(a.render)
	return a
}

func (a *app) println(s string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, s)
}

func (a *app) print(s string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprint(a.out, s)
}

func (a *app) render(snap chat.Snapshot) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	if sess := a.client.Session.Get(); sess != nil {
		a.view.selfID = sess.ID
		a.view.selfEmail = sess.Email
	}
	for _, line := range a.view.apply(snap) {
		fmt.Fprintln(a.out, line)
	}
}

// readLine returns the next input line, or an error once input ends or ctx
// is done.
func (a *app) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-a.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (a *app) run(ctx context.Context) error {
	for {
		var err error
		if a.client.Session.Get() == nil {
			err = a.authPage(ctx)
		} else {
			err = a.chatPage(ctx)
		}
		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			return err
		}
	}
}

func (a *app) autoLogin(ctx context.Context, email, password string, signUp bool) {
	if a.client.Session.Get() != nil {
		return
	}
	var err error
	if signUp {
		_, err = a.client.SignUp(ctx, email, password)
	} else {
		_, err = a.client.SignIn(ctx, email, password)
	}
	if err != nil {
		a.println(formatError("Sign in failed", err))
	}
}

// authPage is the sign-in form. Typing /signup at the email prompt switches
// to the sign-up form and back.
func (a *app) authPage(ctx context.Context) error {
	signUp := false
	for a.client.Session.Get() == nil {
		title := "Sign in"
		if signUp {
			title = "Sign up"
		}
		a.println(headerStyle(title) + " (type /signup or /signin to switch, /quit to exit)")

		a.print("Email: ")
		email, err := a.readLine(ctx)
		if err != nil {
			return err
		}
		switch strings.TrimSpace(email) {
		case "/quit":
			return errQuit
		case "/signup":
			signUp = true
			continue
		case "/signin":
			signUp = false
			continue
		}

		a.print("Password: ")
		password, err := a.readLine(ctx)
		if err != nil {
			return err
		}

		if signUp {
			_, err = a.client.SignUp(ctx, email, password)
		} else {
			_, err = a.client.SignIn(ctx, email, password)
		}
		if err != nil {
			a.println(formatError(title+" failed", err))
		}
	}
	return nil
}

// chatPage shows the selected room and reads commands until sign-out.
func (a *app) chatPage(ctx context.Context) error {
	sess := a.client.Session.Get()
	a.println(fmt.Sprintf("Signed in as %s. Type /help for commands.", sess.Email))

	if err := a.client.OpenChat(ctx); err != nil && !errors.Is(err, chat.ErrNoRoomSelected) {
		a.log.Debug("open chat", zap.Error(err))
	}

	for a.client.Session.Get() != nil {
		line, err := a.readLine(ctx)
		if err != nil {
			return err
		}
		if err := a.handle(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		if err := a.client.Send(ctx, line); err != nil {
			if errors.Is(err, chat.ErrNoRoomSelected) {
				a.println("Please join or create a room first.")
				return nil
			}
			a.println(formatError("Send failed", err))
		}
		return nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/help":
		a.println(helpText)
	case "/quit":
		return errQuit
	case "/rooms":
		a.println("Loading rooms...")
		rooms, err := a.client.ListRooms(ctx)
		if err != nil {
			a.println(formatError("Error loading rooms", err))
			return nil
		}
		a.println(formatRooms(rooms, a.client.Selection.Get()))
	case "/join":
		a.join(ctx, arg)
	case "/create":
		if _, err := a.client.CreateRoom(ctx, arg); err != nil {
			a.println(formatError("Create room failed", err))
		}
	case "/logout":
		if err := a.client.SignOut(ctx); err != nil {
			a.println(formatError("Sign out failed", err))
		}
		a.println("Signed out.")
	default:
		a.println("Unknown command. Type /help.")
	}
	return nil
}

func (a *app) join(ctx context.Context, arg string) {
	if arg == "" {
		if err := a.client.OpenChat(ctx); err != nil && errors.Is(err, chat.ErrNoRoomSelected) {
			a.println("Please join or create a room first.")
		}
		return
	}

	rooms, err := a.client.ListRooms(ctx)
	if err != nil {
		a.println(formatError("Error loading rooms", err))
		return
	}
	room, ok := findRoom(rooms, arg)
	if !ok {
		a.println("No such room: " + arg)
		return
	}
	// Load and feed errors are rendered from the sync snapshot.
	if err := a.client.JoinRoom(ctx, room); err != nil {
		a.log.Debug("join room", zap.Int64("room", room.ID), zap.Error(err))
	}
}

// findRoom matches an id first, then a case-insensitive name.
func findRoom(rooms []chat.Room, arg string) (chat.Room, bool) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		for _, r := range rooms {
			if r.ID == id {
				return r, true
			}
		}
	}
	for _, r := range rooms {
		if strings.EqualFold(r.Name, arg) {
			return r, true
		}
	}
	return chat.Room{}, false
}
