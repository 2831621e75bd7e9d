package namegen

// Completion flag rules. fc_short and fc_full replace the flags component
// with a possibly empty String; the empty value is dropped later by the
// implicit join.

func fcRm(l *List, _ []Arg) error {
	i := l.Find(TagFlags)
	if i < 0 {
		return nil
	}
	l.DeleteAt(i)
	return nil
}

func fcRmIfComplete(l *List, _ []Arg) error {
	i := l.Find(TagFlags)
	if i < 0 {
		return nil
	}
	if l.At(i).Flags.Complete {
		l.DeleteAt(i)
	}
	return nil
}

func fcShort(l *List, _ []Arg) error {
	i := l.Find(TagFlags)
	if i < 0 {
		return nil
	}
	fc := l.At(i).Flags
	output := ""
	switch {
	case fc.Complete:
		output = "[C]"
	case fc.Final:
		output = "[F]"
	}
	l.ReplaceAt(i, newStringComponent(output))
	return nil
}

func fcFull(l *List, _ []Arg) error {
	i := l.Find(TagFlags)
	if i < 0 {
		return nil
	}
	fc := l.At(i).Flags
	output := ""
	switch {
	case fc.Complete:
		output = "[Complete]"
	case fc.Final:
		output = "[Final]"
	}
	l.ReplaceAt(i, newStringComponent(output))
	return nil
}
