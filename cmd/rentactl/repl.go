package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"rentacars/internal/entities"
	"rentacars/internal/service"
	"rentacars/internal/utils"
)

type repl struct {
	shell        *service.Shell
	sc           *bufio.Scanner
	out          io.Writer
	readPassword func(prompt string) (string, error)
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, "Bienvenido a la consola de RentaCars")
	fmt.Fprintln(r.out, "Comandos:")
	fmt.Fprintln(r.out, "  Sesión: login, register, logout")
	fmt.Fprintln(r.out, "  Páginas: pages, clientes, carros, rentas, reload")
	fmt.Fprintln(r.out, "  Registros: list, add, edit <id>, cancel, delete <id>")
	fmt.Fprintln(r.out, "  Sistema: help, exit")
}

func (r *repl) run(ctx context.Context) {
	r.printHelp()
	for {
		fmt.Fprintf(r.out, "\n%s> ", r.shell.Page())
		if !r.sc.Scan() {
			return
		}
		fields := strings.Fields(r.sc.Text())
		if len(fields) == 0 {
			continue
		}
		if !r.dispatch(ctx, fields[0], fields[1:]) {
			return
		}
	}
}

// dispatch runs one command and reports whether the loop should go on.
func (r *repl) dispatch(ctx context.Context, cmd string, args []string) bool {
	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}

	switch cmd {
	case "help":
		r.printHelp()
	case "login":
		r.handleLogin(ctx)
	case "register":
		r.handleRegister(ctx)
	case "logout":
		r.shell.Logout()
		fmt.Fprintln(r.out, "Sesión cerrada")
	case "pages":
		for _, p := range r.shell.Pages() {
			fmt.Fprintf(r.out, "  %s\n", p)
		}
	case service.ResourceCustomers, service.ResourceVehicles, service.ResourceRentals:
		r.handleOpen(ctx, service.Page(cmd), false)
	case "open":
		r.handleOpen(ctx, service.Page(arg), false)
	case "reload":
		r.handleOpen(ctx, r.shell.Page(), true)
	case "list":
		if e, ok := r.current(); ok {
			printView(r.out, e.View())
		}
	case "add":
		r.handleAdd(ctx)
	case "edit":
		r.handleEdit(ctx, arg)
	case "cancel":
		if e, ok := r.current(); ok {
			e.CancelEdit()
			fmt.Fprintln(r.out, "Edición cancelada")
		}
	case "delete":
		r.handleDelete(ctx, arg)
	case "exit", "quit":
		fmt.Fprintln(r.out, "¡Hasta luego!")
		return false
	default:
		fmt.Fprintln(r.out, "Comando desconocido. Escribe 'help' para ver los comandos.")
	}
	return true
}

func (r *repl) handleLogin(ctx context.Context) {
	if r.shell.Authenticated() {
		fmt.Fprintln(r.out, "Ya hay una sesión iniciada. Usa 'logout' primero.")
		return
	}
	username, ok := r.prompt("Usuario", "")
	if !ok {
		return
	}
	password, err := r.readPassword("Contraseña: ")
	if err != nil {
		fmt.Fprintf(r.out, "Error leyendo la contraseña: %v\n", err)
		return
	}
	if err := r.shell.Login(ctx, username, password); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, "Sesión iniciada")
	r.handleOpen(ctx, r.shell.Page(), false)
}

func (r *repl) handleRegister(ctx context.Context) {
	if err := r.shell.Navigate(service.PageRegister); err != nil {
		fmt.Fprintln(r.out, "Cierra la sesión para registrar un usuario.")
		return
	}
	defer r.shell.Navigate(service.PageLogin)

	username, ok := r.prompt("Usuario", "")
	if !ok {
		return
	}
	password, err := r.readPassword("Contraseña: ")
	if err != nil {
		fmt.Fprintf(r.out, "Error leyendo la contraseña: %v\n", err)
		return
	}
	rol, ok := r.prompt("Rol (cliente/admin)", entities.RolCliente)
	if !ok {
		return
	}
	msg, err := r.shell.Register(ctx, entities.RegisterRequest{Username: username, Password: password, Rol: rol})
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, msg)
}

func (r *repl) handleOpen(ctx context.Context, p service.Page, reload bool) {
	editor, err := r.shell.Open(ctx, p, reload)
	if err != nil {
		fmt.Fprintf(r.out, "No se puede abrir %q en este momento\n", p)
		return
	}
	printView(r.out, editor.View())
}

// current returns the editor of the page on screen.
func (r *repl) current() (service.Editor, bool) {
	editor, ok := r.shell.Editor(r.shell.Page())
	if !ok || !r.shell.Authenticated() || !editor.Loaded() {
		fmt.Fprintln(r.out, "Abre primero una página: clientes, carros o rentas")
		return nil, false
	}
	return editor, true
}

func (r *repl) handleAdd(ctx context.Context) {
	editor, ok := r.current()
	if !ok {
		return
	}
	view := editor.View()
	if !view.Creating() {
		editor.ToggleCreate()
		view = editor.View()
	}

	fmt.Fprintf(r.out, "Nuevo %s\n", view.Singular)
	draft, ok := r.fillDraft(view.Fields, view.CreateDraft)
	if !ok {
		return
	}
	err := editor.SubmitCreate(ctx, draft)
	r.report(editor, err)
}

func (r *repl) handleEdit(ctx context.Context, arg string) {
	editor, ok := r.current()
	if !ok {
		return
	}
	id, err := resolveID(editor.View(), arg)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	if err := editor.BeginEdit(id); err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}

	view := editor.View()
	fmt.Fprintf(r.out, "Editando %s %s (Enter conserva el valor)\n", view.Singular, utils.ShortID(id))
	draft, ok := r.fillDraft(view.Fields, view.EditDraft)
	if !ok {
		return
	}
	r.report(editor, editor.SubmitEdit(ctx, draft))
}

func (r *repl) handleDelete(ctx context.Context, arg string) {
	editor, ok := r.current()
	if !ok {
		return
	}
	id, err := resolveID(editor.View(), arg)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	r.report(editor, editor.Delete(ctx, id))
}

// report prints the editor notice after an action, or err when it left none.
func (r *repl) report(editor service.Editor, err error) {
	if n := editor.View().Notice; n != nil {
		fmt.Fprintln(r.out, n.Message)
		return
	}
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *repl) fillDraft(fields []service.Field, current service.Draft) (service.Draft, bool) {
	draft := current.Clone()
	for _, f := range fields {
		label := f.Label
		value := current.Get(f.Name)
		switch f.Type {
		case service.FieldCheckbox:
			label += " (s/n)"
			if utils.ParseBool(value) {
				value = "s"
			} else {
				value = "n"
			}
		case service.FieldSelect:
			for i, o := range f.Options {
				fmt.Fprintf(r.out, "  %d) %s\n", i+1, o.Label)
			}
		}
		v, ok := r.prompt(label, value)
		if !ok {
			return nil, false
		}
		switch f.Type {
		case service.FieldCheckbox:
			v = strconv.FormatBool(utils.ParseBool(v) || strings.EqualFold(v, "s"))
		case service.FieldSelect:
			// Options may be picked by number.
			if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= len(f.Options) {
				v = f.Options[n-1].Value
			}
		}
		draft[f.Name] = v
	}
	return draft, true
}

func (r *repl) prompt(label, current string) (string, bool) {
	if current != "" {
		fmt.Fprintf(r.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(r.out, "%s: ", label)
	}
	if !r.sc.Scan() {
		return "", false
	}
	v := strings.TrimSpace(r.sc.Text())
	if v == "" {
		return current, true
	}
	return v, true
}

// resolveID accepts a full id or the short form shown in listings.
func resolveID(view service.View, arg string) (string, error) {
	if arg == "" {
		return "", errors.New("falta el id")
	}
	var match string
	for _, row := range view.Rows {
		if row.ID == arg {
			return row.ID, nil
		}
		if strings.HasSuffix(row.ID, arg) {
			if match != "" {
				return "", fmt.Errorf("el id %q es ambiguo", arg)
			}
			match = row.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no existe un registro con id %q", arg)
	}
	return match, nil
}

func printView(w io.Writer, view service.View) {
	fmt.Fprintf(w, "== %s ==\n", view.Title)
	if n := view.Notice; n != nil && n.Target == service.TargetList {
		fmt.Fprintln(w, n.Message)
	}
	if len(view.Rows) == 0 {
		fmt.Fprintln(w, "No hay registros.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", strings.Join(view.Columns, "\t"))
	for _, row := range view.Rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.ShortID, strings.Join(row.Cells, "\t"))
	}
	tw.Flush()
}
