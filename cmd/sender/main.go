// Command sender posts chat lines into rooms on a relay server.
//
//	sender [flags] <server_address> <port> <username>
//
// Input lines are sent to the current room. Local commands:
//
//	/join <room>   switch to room
//	/leave         leave the current room
//	/quit          end the session
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"chatrelay/internal/client"
	"chatrelay/internal/protocol"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <server_address> <port> <username>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	plain := flag.Bool("plain", false, "read lines from stdin instead of the full-screen UI")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 3 {
		usage()
		os.Exit(2)
	}
	host, username := flag.Arg(0), flag.Arg(2)
	port, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid port %q\n", flag.Arg(1))
		os.Exit(2)
	}

	conn, err := protocol.Dial(host, port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	s := client.NewSender(conn)
	defer s.Close()

	if err := s.Login(username); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	if *plain {
		err = runPlain(s, os.Stdin, os.Stderr)
	} else {
		err = runUI(s)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		s.Close()
		os.Exit(1)
	}
}

// runPlain executes one command per input line until /quit, end of input,
// or a broken connection. Rejections are reported on errOut and the session
// goes on.
func runPlain(s *client.Sender, in io.Reader, errOut io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		m, _, err := s.Exec(sc.Text())
		var se *client.ServerError
		switch {
		case err == nil:
			if m.Tag == protocol.TagQuit {
				return nil
			}
		case errors.Is(err, client.ErrEmptyLine):
		case errors.Is(err, client.ErrUnknownCommand):
			fmt.Fprintln(errOut, "Invalid command.")
		case errors.Is(err, client.ErrMissingRoom), errors.Is(err, client.ErrTooLong):
			fmt.Fprintln(errOut, err)
		case errors.As(err, &se):
			fmt.Fprintln(errOut, se.Note)
		default:
			return err
		}
	}
	return sc.Err()
}

func runUI(s *client.Sender) error {
	p := tea.NewProgram(newModel(s), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return err
	}
	return final.(model).fatal
}
