// Package export implements spec.md §4.8's Profile Export: rendering a
// connection profile as a plain-text config fragment a user can drop into
// the AWS CLI or rclone.
package export

import (
	"fmt"
	"strings"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
	"github.com/andrewtheguy/s3browser-sub000/internal/vault"
)

// Format selects the target tool's config file dialect.
type Format string

const (
	FormatAWS    Format = "aws"
	FormatRClone Format = "rclone"
)

// Result is the {filename, content} pair returned to the caller. The
// caller is responsible for setting Cache-Control: no-store on the HTTP
// response — export.Result never touches disk.
type Result struct {
	Filename string
	Content  string
}

// Export renders profile (with its decrypted secret) as a Format config
// fragment. bucket, if non-empty, is recorded as the profile's default
// bucket in the rendered fragment.
func Export(profile *vault.ConnectionProfile, secret string, format Format, bucket string) (*Result, error) {
	switch format {
	case FormatAWS:
		return exportAWS(profile, secret, bucket), nil
	case FormatRClone:
		return exportRClone(profile, secret, bucket), nil
	default:
		return nil, apperr.Newf(apperr.InvalidInput, "unsupported export format %q", format)
	}
}

func exportAWS(profile *vault.ConnectionProfile, secret, bucket string) *Result {
	sectionName := sanitizeSectionName(profile.ProfileName)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", sectionName)
	fmt.Fprintf(&b, "aws_access_key_id = %s\n", profile.AccessKeyID)
	fmt.Fprintf(&b, "aws_secret_access_key = %s\n", secret)
	if profile.Endpoint != "" {
		fmt.Fprintf(&b, "endpoint_url = %s\n", profile.Endpoint)
	}
	if profile.Region != "" {
		fmt.Fprintf(&b, "region = %s\n", profile.Region)
	}
	if bucket != "" {
		fmt.Fprintf(&b, "# default_bucket = %s\n", bucket)
	}

	return &Result{Filename: sectionName + ".aws-credentials", Content: b.String()}
}

func exportRClone(profile *vault.ConnectionProfile, secret, bucket string) *Result {
	sectionName := sanitizeSectionName(profile.ProfileName)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", sectionName)
	b.WriteString("type = s3\n")
	b.WriteString("provider = Other\n")
	fmt.Fprintf(&b, "access_key_id = %s\n", profile.AccessKeyID)
	fmt.Fprintf(&b, "secret_access_key = %s\n", secret)
	if profile.Endpoint != "" {
		fmt.Fprintf(&b, "endpoint = %s\n", profile.Endpoint)
	}
	if profile.Region != "" {
		fmt.Fprintf(&b, "region = %s\n", profile.Region)
	}
	if bucket != "" {
		fmt.Fprintf(&b, "# default bucket: %s\n", bucket)
	}

	return &Result{Filename: sectionName + ".rclone.conf", Content: b.String()}
}

// sanitizeSectionName keeps the profile name usable as an INI section
// header: strip brackets and turn line breaks into spaces, since profile_name is
// otherwise user-controlled free text.
func sanitizeSectionName(name string) string {
	replacer := strings.NewReplacer("[", "", "]", "", "\n", " ", "\r", " ")
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		return "default"
	}
	return cleaned
}
