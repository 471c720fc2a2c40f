// reactor.go - a reactor reboot simulator over disjoint cuboid sets.
// Copyright (C) 2021 Daniel C. Brotsky.
//
// This program is free software; you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License along
// with this program; if not, write to the Free Software Foundation, Inc.,
// 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
// Licensed under the LGPL v3.  See the LICENSE file for details


// Command-line client for reactor.go reboot procedures
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ancientHacker/reactor.go/reactor"
	"github.com/ancientHacker/reactor.go/storage"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("f", "", "compute both volumes of the procedure in `file` and exit")
	mode := flag.String("mode", "full", "initial reactor mode (init or full)")
	debug := flag.Bool("debug", false, "check disjointness after every step")
	flag.Parse()

	if *file != "" {
		if err := batch(os.Stdout, *file); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	m, err := reactor.ParseMode(*mode)
	if err != nil {
		log.Fatalf("%v", err)
	}
	session := newSession(m, *debug)
	defer session.closeStorage()
	if err := listener(os.Stdout, os.Stdin, session); err != nil {
		log.Fatalf("CLI failure: %v", err)
	}
}

// batch computes the init-only and full volumes of the procedure
// in the named file.  Any bad instruction aborts the run with no
// output.
func batch(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "can't read procedure")
	}
	defer f.Close()
	instrs, err := reactor.ReadInstructions(f)
	if err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	v := reactor.ComputeVolumes(instrs)
	fmt.Fprintf(w, "total_volume (init only) %d\n", v.Init)
	fmt.Fprintf(w, "total_volume %d\n", v.Full)
	return nil
}

/*

CLI listener

*/

type request struct {
	inline  string
	command string
	args    []string
}

// listener reads lines and dispatches them to handlers.  It
// prompts when talking to a terminal.
func listener(out io.Writer, in io.Reader, session *cliSession) error {
	prompt := false
	if f, ok := out.(*os.File); ok {
		if stat, _ := f.Stat(); stat != nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			prompt = true
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprintf(out, "reactor> ")
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				if prompt {
					fmt.Fprintf(out, " (read error)\n")
				}
				return err
			}
			if prompt {
				fmt.Fprintf(out, " (EOF)\n")
			}
			return nil
		}
		r := &request{inline: strings.TrimSpace(scanner.Text())}
		fields := strings.Fields(r.inline)
		if len(fields) == 0 {
			continue
		}
		r.command = strings.ToLower(fields[0])
		switch r.command {
		case "quit", "exit":
			return nil
		}
		r.args = fields[1:]
		dispatchCommand(session, out, r)
	}
}

// command dispatching
type commandInfo struct {
	command     string
	argInfo     string
	description string
	handler     func(*cliSession, io.Writer, *request)
}

// the command dispatch info is sorted for easy usage printing,
// and then hashed for rapid dispatching
var (
	dispatchInfo  []commandInfo
	dispatchTable map[string]*commandInfo
)

func init() {
	dispatchInfo = []commandInfo{
		{"back", "", "undo the last step", backHandler},
		{"check", "", "verify the on regions are disjoint", checkHandler},
		{"fetch", "procedure", "load a stored procedure", fetchHandler},
		{"help", "", "show this message", helpHandler},
		{"list", "", "list the procedure's instructions", listHandler},
		{"load", "file", "load a procedure from a file", loadHandler},
		{"markdown", "on|off", "format output in Markdown", markdownHandler},
		{"mode", "[init|full]", "get/set the mode (setting resets)", modeHandler},
		{"off", "region", "append an off instruction", instructionHandler},
		{"on", "region", "append an on instruction", instructionHandler},
		{"regions", "", "show the on regions", regionsHandler},
		{"reset", "", "restart the procedure", resetHandler},
		{"run", "", "step to the end", runHandler},
		{"save", "name", "store the procedure", saveHandler},
		{"session", "", "show session info", sessionHandler},
		{"state", "", "show reactor state", stateHandler},
		{"step", "[count]", "consume instructions", stepHandler},
	}
	dispatchTable = make(map[string]*commandInfo, len(dispatchInfo))
	for i := range dispatchInfo {
		dispatchTable[dispatchInfo[i].command] = &dispatchInfo[i]
	}
}

func dispatchCommand(session *cliSession, w io.Writer, r *request) {
	defer func() {
		if err := recover(); err != nil {
			errorHandler(err, w, r)
		}
	}()

	ci := dispatchTable[r.command]
	if ci == nil {
		usageHandler(fmt.Sprintf("%q is not a known command", r.command), w, r)
	} else {
		ci.handler(session, w, r)
	}
}

/*

request handlers

*/

func markdownHandler(session *cliSession, w io.Writer, r *request) {
	if len(r.args) > 0 {
		switch strings.ToLower(r.args[0]) {
		case "on":
			session.markdown = true
		case "off":
			session.markdown = false
		default:
			usageHandler(fmt.Sprintf("argument to %s must be 'on' or 'off'", r.command), w, r)
			return
		}
	}
	if session.markdown {
		fmt.Fprintf(w, "Markdown is on\n")
	} else {
		fmt.Fprintf(w, "Markdown is off\n")
	}
}

func modeHandler(session *cliSession, w io.Writer, r *request) {
	if len(r.args) == 0 {
		fmt.Fprintf(w, "Mode is %v\n", session.reactor.Mode())
		return
	}
	mode, err := reactor.ParseMode(r.args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	session.start(session.reactor.Instructions(), mode)
	stateHandler(session, w, r)
}

func loadHandler(session *cliSession, w io.Writer, r *request) {
	if len(r.args) != 1 {
		usageHandler(fmt.Sprintf("%s requires a file name", r.command), w, r)
		return
	}
	f, err := os.Open(r.args[0])
	if err != nil {
		fmt.Fprintf(w, "Load failed: %v\n", err)
		return
	}
	defer f.Close()
	instrs, err := reactor.ReadInstructions(f)
	if err != nil {
		fmt.Fprintf(w, "Load failed: %v\n", err)
		return
	}
	session.source = r.args[0]
	session.start(instrs, session.reactor.Mode())
	stateHandler(session, w, r)
}

func fetchHandler(session *cliSession, w io.Writer, r *request) {
	if len(r.args) != 1 {
		usageHandler(fmt.Sprintf("%s requires a procedure name or ID", r.command), w, r)
		return
	}
	if err := session.openStorage(); err != nil {
		fmt.Fprintf(w, "Fetch failed: %v\n", err)
		return
	}
	p, err := storage.LoadProcedure(r.args[0])
	if err != nil {
		fmt.Fprintf(w, "Fetch failed: %v\n", err)
		return
	}
	session.source = p.Name
	session.start(p.Instructions, session.reactor.Mode())
	stateHandler(session, w, r)
}

func saveHandler(session *cliSession, w io.Writer, r *request) {
	if len(r.args) != 1 {
		usageHandler(fmt.Sprintf("%s requires a procedure name", r.command), w, r)
		return
	}
	if err := session.openStorage(); err != nil {
		fmt.Fprintf(w, "Save failed: %v\n", err)
		return
	}
	body := reactor.FormatInstructions(session.reactor.Instructions())
	p, err := storage.SaveProcedure(r.args[0], body)
	if err != nil {
		fmt.Fprintf(w, "Save failed: %v\n", err)
		return
	}
	session.source = p.Name
	fmt.Fprintf(w, "Saved procedure %q (%s)\n", p.Name, p.ProcedureID)
}

// instructionHandler appends the instruction on the line to the
// procedure, keeping the reactor's progress.
func instructionHandler(session *cliSession, w io.Writer, r *request) {
	instr, err := reactor.ParseInstruction(r.command + " " + strings.Join(r.args, ""))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	session.append(instr)
	fmt.Fprintf(w, "Added instruction %d: %v\n", len(session.reactor.Instructions()), instr)
}

func stepHandler(session *cliSession, w io.Writer, r *request) {
	count := 1
	if len(r.args) > 0 {
		n, err := strconv.Atoi(r.args[0])
		if err != nil || n < 1 {
			usageHandler(fmt.Sprintf("%s count (%s) must be a positive number", r.command, r.args[0]), w, r)
			return
		}
		count = n
	}
	for i := 0; i < count; i++ {
		update, err := session.step()
		if err != nil {
			fmt.Fprintf(w, "%v\n", err)
			break
		}
		outcome := "applied"
		if !update.Applied {
			outcome = "skipped"
		}
		fmt.Fprintf(w, "Step %d: %v (%s)\n", update.State.Step, update.Instruction, outcome)
	}
	stateHandler(session, w, r)
}

func runHandler(session *cliSession, w io.Writer, r *request) {
	for !session.reactor.Done() {
		if _, err := session.step(); err != nil {
			panic(err)
		}
	}
	stateHandler(session, w, r)
}

func backHandler(session *cliSession, w io.Writer, r *request) {
	if !session.back() {
		fmt.Fprintf(w, "No steps to undo.\n")
		return
	}
	stateHandler(session, w, r)
}

func resetHandler(session *cliSession, w io.Writer, r *request) {
	session.start(session.reactor.Instructions(), session.reactor.Mode())
	stateHandler(session, w, r)
}

func checkHandler(session *cliSession, w io.Writer, r *request) {
	if err := session.reactor.Check(); err != nil {
		fmt.Fprintf(w, "Check failed: %v\n", err)
		return
	}
	fmt.Fprintf(w, "All %d regions are disjoint.\n", session.reactor.State().Regions)
}

func listHandler(session *cliSession, w io.Writer, r *request) {
	state := session.reactor.State()
	for i, instr := range session.reactor.Instructions() {
		marker := " "
		if i == state.Step {
			marker = ">"
		}
		fmt.Fprintf(w, "%s %3d: %v\n", marker, i+1, instr)
	}
}

func regionsHandler(session *cliSession, w io.Writer, r *request) {
	if session.markdown {
		fmt.Fprint(w, session.reactor.RegionsMarkdown())
	} else {
		fmt.Fprint(w, session.reactor.RegionsString())
	}
}

func stateHandler(session *cliSession, w io.Writer, r *request) {
	fmt.Fprintf(w, "%v\n", session.reactor.State())
}

func sessionHandler(session *cliSession, w io.Writer, r *request) {
	fmt.Fprintf(w, "Session %s running procedure %q; %v\n",
		session.SID, session.source, session.reactor.State())
}

func helpHandler(session *cliSession, w io.Writer, r *request) {
	printUsage(w)
}

func usageHandler(msg string, w io.Writer, r *request) {
	fmt.Fprintf(w, "Error: %s\n", msg)
	printUsage(w)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage:\n")
	for _, ci := range dispatchInfo {
		fmt.Fprintf(w, "    %8s %-11s\t%s\n", ci.command, ci.argInfo, ci.description)
	}
	fmt.Fprintf(w, "  and 'quit' or EOF to exit.\n")
}

func errorHandler(err interface{}, w io.Writer, r *request) {
	fmt.Fprintf(w, "Panic executing %q: %v\n", r.inline, err)
	log.Printf("Error executing %q: %v", r.inline, err)
}
