// internal/forecastingest/drive.go
package forecastingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveService wraps the Google Drive folder the forecasting oracle drops
// its CSV exports into.
type DriveService struct {
	srv *drive.Service
}

func NewDriveService(credentialsJSON string) (*DriveService, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	client := config.Client(context.Background())
	srv, err := drive.NewService(context.Background(), option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive client: %w", err)
	}

	return &DriveService{srv: srv}, nil
}

// DriveFile is one forecast drop in the watched folder.
type DriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// ListForecastFiles lists the CSV files in the given folder.
func (s *DriveService) ListForecastFiles(folderID string) ([]*DriveFile, error) {
	if folderID == "" {
		folderID = "root"
	}

	result, err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and mimeType='text/csv' and trashed=false", folderID)).
		Fields("files(id, name, modifiedTime, size)").
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list forecast files: %w", err)
	}

	files := make([]*DriveFile, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, &DriveFile{
			ID:           f.Id,
			Name:         f.Name,
			ModifiedTime: f.ModifiedTime,
			Size:         f.Size,
		})
	}
	return files, nil
}

// Download streams one file's content to w.
func (s *DriveService) Download(fileID string, w io.Writer) error {
	resp, err := s.srv.Files.Get(fileID).Download()
	if err != nil {
		return fmt.Errorf("unable to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	_, err = io.Copy(w, resp.Body)
	return err
}

// ResolveFolder walks a slash-separated folder path from the drive root and
// returns the folder id.
func (s *DriveService) ResolveFolder(path string) (string, error) {
	if path == "" {
		return "root", nil
	}

	currentID := "root"
	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='application/vnd.google-apps.folder' and trashed=false",
				currentID, folder)).
			Fields("files(id, name)").
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}
		if len(result.Files) == 0 {
			return "", fmt.Errorf("folder not found: %s", folder)
		}
		currentID = result.Files[0].Id
	}

	return currentID, nil
}
