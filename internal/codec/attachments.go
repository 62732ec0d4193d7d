package codec

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/mnohosten/mailbridge/internal/mailerr"
	"github.com/mnohosten/mailbridge/internal/model"
)

// LoadAttachments reads attachment content from disk for every
// attachment that only names a path. All content is in memory when
// this returns, so nothing touches the filesystem during dispatch.
func LoadAttachments(atts []model.Attachment) error {
	for i := range atts {
		att := &atts[i]

		if att.Data == nil {
			if att.Path == "" {
				return fmt.Errorf("%w: attachment %d has neither content nor path", mailerr.ErrValidation, i)
			}
			data, err := os.ReadFile(att.Path)
			if err != nil {
				return fmt.Errorf("%w: reading attachment %s: %v", mailerr.ErrValidation, att.Path, err)
			}
			att.Data = data
		}

		if att.Filename == "" {
			att.Filename = filepath.Base(att.Path)
		}
		if att.ContentType == "" && att.Filename != "" {
			att.ContentType = mime.TypeByExtension(filepath.Ext(att.Filename))
		}
	}
	return nil
}
