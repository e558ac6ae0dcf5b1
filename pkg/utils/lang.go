package utils

import (
	"github.com/abadojack/whatlanggo"
)

var whatLangOpts = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Vie: true,
		whatlanggo.Cmn: true,
		whatlanggo.Fra: true,
		whatlanggo.Rus: true,
	},
}

// WhatLang returns the detected language name of query, e.g. "Vietnamese".
// The answer generator replies in this language.
func WhatLang(query string) string {
	info := whatlanggo.DetectWithOptions(query, whatLangOpts)
	return info.Lang.String()
}
