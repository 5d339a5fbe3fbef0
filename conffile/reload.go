package conffile

// Reload reads the file from disk again and reports every difference to the
// callbacks, followed by one ActionReloaded notification. Local changes that
// were not saved are lost.
func (f *File) Reload() error {
	f.mu.Lock()

	scratch := newFile(nil, f.setup, f.fs, f.sink)
	err := scratch.read()
	if err != nil {
		f.errorCount += scratch.errorCount
		f.mu.Unlock()
		return err
	}

	var events []notification
	for _, name := range scratch.sortedNames() {
		p := scratch.parameters[name]
		old, ok := f.parameters[name]
		switch {
		case !ok:
			events = append(events, notification{action: ActionCreated, name: name, value: p.Value})
		case old.Value != p.Value:
			events = append(events, notification{action: ActionUpdated, name: name, value: p.Value})
		}
	}
	for _, name := range f.sortedNames() {
		if _, ok := scratch.parameters[name]; !ok {
			events = append(events, notification{action: ActionErased, name: name, value: f.parameters[name].Value})
		}
	}
	events = append(events, notification{action: ActionReloaded})

	f.parameters = scratch.parameters
	f.sections = scratch.sections
	f.exists = scratch.exists
	f.errorCount += scratch.errorCount
	f.modified = false

	callbacks := f.callbackList()
	f.mu.Unlock()

	f.notify(callbacks, events)
	return nil
}
