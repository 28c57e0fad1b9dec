// Package interactive implements the terminal prompting collaborator:
// menus for rubric categories, yes/no selection of modifiers and caps,
// and validated numeric entry. It feeds resolved selections to the
// session core; no scoring logic lives here.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"aerial-triage/internal/fusion"
	"aerial-triage/internal/rubric"
	"aerial-triage/internal/session"
)

// Prompter drives an interactive scoring session on a terminal.
type Prompter struct {
	in    *bufio.Reader
	out   io.Writer
	first bool
}

// New creates a prompter reading stdin and writing stdout.
func New() *Prompter {
	return &Prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout, first: true}
}

// NewWithIO creates a prompter over explicit streams.
func NewWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, first: true}
}

// TweakParams optionally overwrites the session parameters before the
// first case is scored. Weight renormalization happens downstream.
func (p *Prompter) TweakParams(defaults fusion.Params) (fusion.Params, error) {
	params := defaults

	tweak, err := p.confirm("Do you want to tweak global parameters before scoring?")
	if err != nil || !tweak {
		return params, err
	}

	fmt.Fprintln(p.out, "\n--- Adjust Session Parameters ---")
	if change, err := p.confirm(fmt.Sprintf("Current prior P(NH) = %.2f. Change it?", params.PriorNH)); err != nil {
		return params, err
	} else if change {
		if params.PriorNH, err = p.promptFloat("Enter new prior P(NH) (0.0 - 1.0): ", 0, 1); err != nil {
			return params, err
		}
	}
	if change, err := p.confirm(fmt.Sprintf("Current calibration K = %.2f. Change it?", params.CalibrationK)); err != nil {
		return params, err
	} else if change {
		if params.CalibrationK, err = p.promptFloat("Enter new calibration K (0.0 - 1.0): ", 0, 1); err != nil {
			return params, err
		}
	}

	fmt.Fprintln(p.out, "\nNote: evidence weights should sum to 1.0 (renormalized otherwise).")
	change, err := p.confirm(fmt.Sprintf("Current weights (C:%.2f, E:%.2f, P:%.2f). Change them?",
		params.WeightC, params.WeightE, params.WeightP))
	if err != nil {
		return params, err
	}
	if change {
		if params.WeightC, err = p.promptFloat("Enter new weight C: ", 0, 1); err != nil {
			return params, err
		}
		if params.WeightE, err = p.promptFloat("Enter new weight E: ", 0, 1); err != nil {
			return params, err
		}
		if params.WeightP, err = p.promptFloat("Enter new weight P: ", 0, 1); err != nil {
			return params, err
		}
	}

	return params, nil
}

// Next prompts for the next case, returning nil when the operator is done.
func (p *Prompter) Next() (*session.CaseRequest, error) {
	if !p.first {
		again, err := p.confirm("Score another case?")
		if err != nil {
			return nil, err
		}
		if !again {
			return nil, nil
		}
	}
	p.first = false

	fmt.Fprintln(p.out, "\n"+strings.Repeat("=", 40))
	name, err := p.promptLine("Enter case name: ")
	if err != nil {
		return nil, err
	}

	req := &session.CaseRequest{Name: name}

	direct, err := p.confirm("Skip full scoring and enter SOP/NHP directly?")
	if err != nil {
		return nil, err
	}
	if direct {
		sop, err := p.promptFloat("Enter SOP (0.0 - 1.0): ", 0, 1)
		if err != nil {
			return nil, err
		}
		nhp, err := p.promptFloat("Enter NHP (0.0 - 1.0): ", 0, 1)
		if err != nil {
			return nil, err
		}
		req.Direct = &session.DirectEntry{SOP: sop, NHP: nhp}
		return req, nil
	}

	entry := &session.RubricEntry{}

	entry.HasWitness, err = p.confirm("Is there a human witness that should be scored? (No = camera/system only)")
	if err != nil {
		return nil, err
	}
	if entry.HasWitness {
		if entry.Witness, err = p.promptFactor(rubric.Witness()); err != nil {
			return nil, err
		}
	}

	if entry.Environment, err = p.promptFactor(rubric.Environment()); err != nil {
		return nil, err
	}
	if entry.Physical, err = p.promptFactor(rubric.Physical()); err != nil {
		return nil, err
	}

	if entry.FlightTier, err = p.promptFlightTier(); err != nil {
		return nil, err
	}

	req.Rubric = entry
	return req, nil
}

func (p *Prompter) promptFactor(table rubric.FactorTable) (session.FactorEntry, error) {
	var entry session.FactorEntry

	fmt.Fprintf(p.out, "\nSelect %s base category:\n", table.Name)
	for i, cat := range table.Categories {
		fmt.Fprintf(p.out, "%d: %s - %.2f-%.2f: %s\n", i+1, cat.ID, cat.Min, cat.Max, cat.Description)
	}
	idx, err := p.promptChoice(len(table.Categories))
	if err != nil {
		return entry, err
	}
	category := table.Categories[idx]

	entry.Base, err = p.promptFloat(fmt.Sprintf("Enter numeric base value for %s: ", category.ID), -1, -1)
	if err != nil {
		return entry, err
	}

	fmt.Fprintf(p.out, "\nApply optional modifiers for %s:\n", table.Name)
	for _, mod := range table.Modifiers {
		apply, err := p.confirm(fmt.Sprintf("Apply modifier '%s' (%+.2f)?", mod.ID, mod.Delta))
		if err != nil {
			return entry, err
		}
		if apply {
			entry.ModifierIDs = append(entry.ModifierIDs, mod.ID)
		}
	}

	for _, cap := range table.HardCaps {
		apply, err := p.confirm(fmt.Sprintf("Apply hard cap rule '%s' (max %.2f)?", cap.ID, cap.Ceiling))
		if err != nil {
			return entry, err
		}
		if apply {
			entry.CapIDs = append(entry.CapIDs, cap.ID)
		}
	}

	return entry, nil
}

func (p *Prompter) promptFlightTier() (string, error) {
	tiers := rubric.FlightTiers()

	fmt.Fprintln(p.out, "\nSelect Flight Behavior Classification:")
	fmt.Fprintln(p.out)
	for i, tier := range tiers {
		fmt.Fprintf(p.out, "%d: %s\n", i+1, tier.ID)
		fmt.Fprintf(p.out, "    (%s)\n", tier.Description)
	}
	idx, err := p.promptChoice(len(tiers))
	if err != nil {
		return "", err
	}
	return tiers[idx].ID, nil
}

// promptChoice reads a 1-based menu selection, re-prompting until valid.
func (p *Prompter) promptChoice(n int) (int, error) {
	for {
		line, err := p.promptLine("Enter number: ")
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(line)
		if err == nil && choice >= 1 && choice <= n {
			return choice - 1, nil
		}
		fmt.Fprintln(p.out, "Invalid input. Please enter a number from the list.")
	}
}

// promptFloat reads a float, re-prompting on bad input. Bounds are
// enforced only when min < max; the factor base value is deliberately
// unbounded per the rubric contract.
func (p *Prompter) promptFloat(prompt string, min, max float64) (float64, error) {
	for {
		line, err := p.promptLine(prompt)
		if err != nil {
			return 0, err
		}
		val, err := strconv.ParseFloat(line, 64)
		if err != nil {
			fmt.Fprintln(p.out, "Invalid input. Please enter a numeric value (e.g., 0.75).")
			continue
		}
		if min < max && (val < min || val > max) {
			fmt.Fprintf(p.out, "Value must be between %.1f and %.1f.\n", min, max)
			continue
		}
		return val, nil
	}
}

func (p *Prompter) promptLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question. On a real terminal a single keypress
// answers; otherwise a line starting with y/n is read.
func (p *Prompter) confirm(prompt string) (bool, error) {
	if f, ok := p.out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		return p.confirmLine(prompt)
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return p.confirmLine(prompt)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	fmt.Fprint(p.out, prompt+" (y/n): ")
	for {
		b := make([]byte, 1)
		if _, err := os.Stdin.Read(b); err != nil {
			return false, err
		}

		if b[0] == 3 { // Ctrl+C
			fmt.Fprint(p.out, "^C\r\n")
			return false, fmt.Errorf("cancelled")
		}

		switch strings.ToLower(string(b[0])) {
		case "y":
			fmt.Fprint(p.out, "y\r\n")
			return true, nil
		case "n":
			fmt.Fprint(p.out, "n\r\n")
			return false, nil
		}
	}
}

func (p *Prompter) confirmLine(prompt string) (bool, error) {
	for {
		line, err := p.promptLine(prompt + " (y/n): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please enter 'y' or 'n'.")
	}
}
