package view

const pageHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    {{- if and .LoggedIn .Loading}}
    <meta http-equiv="refresh" content="1">
    {{- end}}
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; max-width: 1200px; margin: 0 auto; padding: 20px; background: #f5f5f5; }
        h1 { color: #333; border-bottom: 2px solid #00ad9f; padding-bottom: 10px; }
        .user-bar { display: flex; justify-content: space-between; align-items: center; margin-bottom: 15px; }
        .search input { width: 100%; padding: 10px; font-size: 16px; border: 1px solid #ccc; border-radius: 4px; }
        table { width: 100%; border-collapse: collapse; background: white; margin-top: 15px; }
        th, td { padding: 8px; border-bottom: 1px solid #eee; text-align: left; font-size: 14px; }
        th a { color: #333; text-decoration: none; }
        th.active a { color: #00ad9f; }
        td img { width: 80px; }
        .delete-btn { background: #dc3545; color: white; border: none; border-radius: 4px; padding: 4px 8px; cursor: pointer; }
        .login-btn { background: #00ad9f; color: white; border: none; border-radius: 4px; padding: 10px 20px; font-size: 16px; cursor: pointer; }
        .notice { background: #fff3cd; padding: 10px; border-radius: 4px; margin: 10px 0; }
        .loading, .empty { padding: 20px; color: #666; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
{{- if not .LoggedIn}}
    <form class="login" method="post" action="/login">
        <button type="submit" class="login-btn">Login with Netlify</button>
    </form>
    <form id="callback" method="post" action="/auth/callback" style="display:none">
        <input type="hidden" name="hash" id="callback-hash">
    </form>
    <script>
        if (window.location.hash.length > 1) {
            document.getElementById('callback-hash').value = window.location.hash;
            history.replaceState(null, '', window.location.pathname);
            document.getElementById('callback').submit();
        }
    </script>
{{- else}}
    <div class="user-bar">
        <span class="greeting">{{.Greeting}}</span>
        <span>
            <form class="refresh" method="post" action="/refresh" style="display:inline">
                <button type="submit">Refresh</button>
            </form>
            <form class="logout" method="post" action="/logout" style="display:inline">
                <button type="submit">Logout</button>
            </form>
        </span>
    </div>
    {{- if .Notice}}
    <div class="notice">{{.Notice}}</div>
    {{- end}}
    <form class="search" method="get" action="/">
        <input type="search" name="q" value="{{.Filter}}" placeholder="Search by name, id, url, team or repo" autofocus>
    </form>
    {{- if .Loading}}
    <div class="loading">Loading sites...</div>
    {{- else if .Empty}}
    <div class="empty">{{.EmptyText}}</div>
    {{- else}}
    <table class="sites" data-total="{{.Total}}">
        <thead>
            <tr>
                <th></th>
                <th></th>
                {{- range .Columns}}
                <th class="{{if .Active}}active{{end}}" data-key="{{.Key}}"><a href="/sort/{{.Key}}">{{.Label}}{{if .Arrow}} {{.Arrow}}{{end}}</a></th>
                {{- end}}
            </tr>
        </thead>
        <tbody>
            {{- range .Rows}}
            <tr class="site-row" data-id="{{.ID}}">
                <td>
                    <form method="post" action="/sites/{{.ID}}/delete" onsubmit="return confirm('Delete {{.Name}}?')">
                        <button type="submit" class="delete-btn">Delete</button>
                    </form>
                </td>
                <td class="screenshot"><a href="{{.AdminURL}}" target="_blank" rel="noopener noreferrer">{{if .ScreenshotURL}}<img src="{{.ScreenshotURL}}" alt="{{.Name}}">{{end}}</a></td>
                <td class="name"><a href="{{.AdminURL}}" target="_blank" rel="noopener noreferrer">{{.Name}}</a><br><a class="ssl-url" href="{{.SSLURL}}" target="_blank" rel="noopener noreferrer">{{.SSLURL}}</a></td>
                <td class="team">{{if .TeamURL}}<a href="{{.TeamURL}}" target="_blank" rel="noopener noreferrer">{{.AccountName}}</a>{{else}}{{.AccountName}}{{end}}</td>
                <td class="published">{{.Published}}</td>
                <td class="functions"><a href="{{.FunctionsURL}}" title="{{.FunctionsTitle}}" target="_blank" rel="noopener noreferrer">{{.FunctionCount}}</a></td>
                <td class="created">{{.Created}}</td>
                <td class="repo">{{if .RepoURL}}<a href="{{.RepoURL}}" target="_blank" rel="noopener noreferrer">{{.RepoLabel}}</a>{{end}}</td>
            </tr>
            {{- end}}
        </tbody>
    </table>
    {{- end}}
{{- end}}
</body>
</html>`
