package notify

// Command is an opaque action with an enablement predicate.
type Command interface {
	Execute()
	CanExecute() bool
}

// RelayCommand adapts two funcs to Command and lets owners announce that
// CanExecute may have changed.
type RelayCommand struct {
	execute    func()
	canExecute func() bool
	changed    handlerList[func()]
}

func NewRelayCommand(execute func(), canExecute func() bool) *RelayCommand {
	return &RelayCommand{execute: execute, canExecute: canExecute}
}

func (c *RelayCommand) Execute() {
	if c.execute != nil {
		c.execute()
	}
}

func (c *RelayCommand) CanExecute() bool {
	return c.canExecute == nil || c.canExecute()
}

func (c *RelayCommand) AddCanExecuteChanged(id ListenerID, fn func()) {
	if fn != nil {
		c.changed.add(id, fn)
	}
}

func (c *RelayCommand) RemoveCanExecuteChanged(id ListenerID) {
	c.changed.remove(id)
}

func (c *RelayCommand) RaiseCanExecuteChanged() {
	for _, fn := range c.changed.snapshot() {
		fn()
	}
}

// ExecuteCommand runs cmd whenever the source fires.
func (d *Definitions) ExecuteCommand(cmd Command) *Definitions {
	if cmd == nil {
		return d
	}
	return d.Execute(cmd.Execute)
}

// IfCanExecute runs cmd whenever the source fires and cmd can execute.
func (d *Definitions) IfCanExecute(cmd Command) *Definitions {
	if cmd == nil {
		return d
	}
	return d.Execute(func() {
		if cmd.CanExecute() {
			cmd.Execute()
		}
	})
}

// RaiseCommand re-evaluates cmd's enablement whenever the source fires.
func (d *Definitions) RaiseCommand(cmd *RelayCommand) *Definitions {
	if cmd == nil {
		return d
	}
	return d.Execute(cmd.RaiseCanExecuteChanged)
}
