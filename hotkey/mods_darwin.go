package hotkey

import "golang.design/x/hotkey"

func xModifier(m Modifier) (hotkey.Modifier, error) {
	switch m {
	case ModCtrl:
		return hotkey.ModCtrl, nil
	case ModShift:
		return hotkey.ModShift, nil
	case ModAlt:
		return hotkey.ModOption, nil
	default:
		return hotkey.ModCmd, nil
	}
}
