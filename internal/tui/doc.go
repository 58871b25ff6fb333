/*
Package tui implements the terminal user interface for reqflow.

# Architecture

The TUI follows the Bubble Tea framework's Model-Update-View pattern:
  - Model: Maintains all application state
  - Update: Processes messages and returns commands
  - View: Renders the current state to the terminal

# Key Components

  - model.go: Core state, modes and message types
  - keys.go: Keyboard input handling per mode
  - render.go: Recipe list, request pane, response pane and status bar
  - modals.go: Help, profile switcher, error details and history
  - actions.go: Side effects (sending requests, reloading, history reads)

# Request Lifecycle

RequestStates tracks one state per recipe: Loading, Response or Error.
A recipe that is already loading cannot be sent again. Each Loading state
carries the ID of its request, and a completion is accepted only when its
ID matches. Late completions, for example from before a collection reload,
are logged and dropped.

# Threading Model

The update loop never blocks. Template rendering reads the history
database for chains, so both sending and the URL preview run in tea.Cmd
functions with a snapshot of the render context. Results come back as
messages.
*/
package tui
