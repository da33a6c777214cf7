package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dberezin/ipotrack/internal/client/api"
)

func (a *App) Apply(ctx context.Context) error {

	name, err := GetSimpleText(a.reader, "Company name", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	symbol, err := GetSimpleText(a.reader, "Company symbol", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	issueSize, err := GetFloat(a.reader, "Issue size", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	pricePerShare, err := GetFloat(a.reader, "Price per share", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	app, err := a.client.CreateApplication(ctx, api.ApplicationInput{
		CompanyName:   name,
		CompanySymbol: symbol,
		IssueSize:     issueSize,
		PricePerShare: pricePerShare,
	})
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	fmt.Printf("Created application %s (%s), status %s\n", app.ID, app.CompanySymbol, app.Status)
	return nil
}

func (a *App) List(ctx context.Context) error {

	apps, err := a.client.ListApplications(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	if len(apps) == 0 {
		fmt.Println("No applications yet")
		return nil
	}

	for _, app := range apps {
		doc := ""
		if app.HasDocument {
			doc = " [document attached]"
		}
		fmt.Printf("%s  %-6s %-20s %12.2f  %s%s\n",
			app.ID, app.CompanySymbol, app.CompanyName, app.IssueSize, app.Status, doc)
	}
	return nil
}

func (a *App) Upload(ctx context.Context) error {

	id, err := GetSimpleText(a.reader, "Application id", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	d, err := a.client.DocumentUploadURL(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Println("Application not found")
			return err
		}
		fmt.Println(err.Error())
		return err
	}

	fmt.Printf("Upload the document with an HTTP PUT to:\n%s\n", d.URL)
	return nil
}

func (a *App) Download(ctx context.Context) error {

	id, err := GetSimpleText(a.reader, "Application id", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return err
	}

	d, err := a.client.DocumentDownloadURL(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			fmt.Println("Document not found")
			return err
		}
		fmt.Println(err.Error())
		return err
	}

	fmt.Printf("Download the document from:\n%s\n", d.URL)
	return nil
}
