package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/gtmod/gtmod/pkg/gtmod/flatlist"
)

// Asset is one prepared file found in a category folder.
type Asset struct {
	// Name is the logical asset name, without game extensions.
	Name string

	// Path is the absolute path of the prepared file.
	Path string

	// Category is the prefix of the category the asset belongs to.
	Category string

	// Type is the flatlist type the asset will be declared with.
	Type flatlist.Type

	// Size is the file size in bytes.
	Size int64
}

// ScanCategory returns the prepared assets in one category folder, sorted by
// name. Only files directly inside the folder count; the vendor archiver has
// no notion of nested asset paths. A missing folder yields no assets.
func ScanCategory(cat Category) ([]Asset, error) {
	if _, err := os.Stat(cat.Dir); os.IsNotExist(err) {
		return nil, nil
	}

	var (
		mu     sync.Mutex
		assets []Asset
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, cat.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != cat.Dir {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), cat.Ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		mu.Lock()
		assets = append(assets, Asset{
			Name:     flatlist.LogicalName(d.Name()),
			Path:     path,
			Category: cat.Prefix,
			Type:     cat.Type,
			Size:     info.Size(),
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %q: %w", cat.Dir, err)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
	return assets, nil
}

// ScanAll returns the prepared assets of every given category, in category
// order.
func ScanAll(cats []Category) ([]Asset, error) {
	var all []Asset
	for _, cat := range cats {
		assets, err := ScanCategory(cat)
		if err != nil {
			return nil, err
		}
		all = append(all, assets...)
	}
	return all, nil
}
