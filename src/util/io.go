package util

import (
	"fmt"
	"os"
)

// ---------------------
// ----- Functions -----
// ---------------------

// ReadSource reads the input assembly file named by opt.Src. A missing
// file is reported as "cannot find <path>"; main exits with status 1 on it,
// as it does on every other error (§6).
func ReadSource(opt Options) (string, error) {
	b, err := os.ReadFile(opt.Src)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("cannot find %s", opt.Src)
		}
		return "", err
	}
	return string(b), nil
}
