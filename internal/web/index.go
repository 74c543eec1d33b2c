package web

// indexHTML is the upload form. Kept inline so the binary stays
// self-contained.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>excalift — Gliffy to Excalidraw</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 640px;
         margin: 48px auto; padding: 0 16px; color: #1e1e1e; }
  h1 { font-size: 1.5rem; }
  .drop { border: 2px dashed #999; border-radius: 8px; padding: 48px 24px;
          text-align: center; cursor: pointer; transition: border-color .15s; }
  .drop.hover { border-color: #4a67d8; background: #f4f6ff; }
  .hint { color: #666; font-size: .85rem; margin-top: 24px; }
  #status { margin-top: 16px; min-height: 1.5em; }
  .error { color: #b3261e; }
</style>
</head>
<body>
<h1>Gliffy &rarr; Excalidraw</h1>
<p>Drop <code>.gliffy</code> files below. One file downloads as
<code>.excalidraw</code>, several as a zip.</p>

<div class="drop" id="drop">
  Drop files here or click to choose
  <input type="file" id="picker" multiple accept=".gliffy,.json" hidden>
</div>
<div id="status"></div>
<p class="hint">Up to 20 files, 10&nbsp;MB each. Conversion is best-effort:
unsupported shapes become rectangles.</p>

<script>
const drop = document.getElementById('drop');
const picker = document.getElementById('picker');
const status = document.getElementById('status');

drop.addEventListener('click', () => picker.click());
drop.addEventListener('dragover', e => { e.preventDefault(); drop.classList.add('hover'); });
drop.addEventListener('dragleave', () => drop.classList.remove('hover'));
drop.addEventListener('drop', e => {
  e.preventDefault();
  drop.classList.remove('hover');
  upload(e.dataTransfer.files);
});
picker.addEventListener('change', () => upload(picker.files));

async function upload(files) {
  if (!files.length) return;
  status.textContent = 'Converting…';
  status.className = '';

  const form = new FormData();
  for (const f of files) form.append('files', f);

  try {
    const resp = await fetch('/convert', { method: 'POST', body: form });
    if (!resp.ok) {
      const body = await resp.json().catch(() => ({}));
      throw new Error(body.error || ('HTTP ' + resp.status));
    }
    const blob = await resp.blob();
    const isZip = resp.headers.get('Content-Type') === 'application/zip';
    const name = isZip ? 'gliffy_converted.zip'
                       : files[0].name.replace(/\.(gliffy|json)$/, '.excalidraw');
    const a = document.createElement('a');
    a.href = URL.createObjectURL(blob);
    a.download = name;
    a.click();
    URL.revokeObjectURL(a.href);
    status.textContent = 'Done.';
  } catch (err) {
    status.textContent = err.message;
    status.className = 'error';
  }
}
</script>
</body>
</html>
`
